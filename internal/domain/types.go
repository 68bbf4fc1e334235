package domain

import "strings"

// ID is used across domain entities.
type ID int64

// Roles granted by the external identity provider.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// RequestContext carries the verified caller identity when available.
type RequestContext struct {
	UserID ID     `json:"userId"`
	Role   string `json:"role"`
}

// IsAdmin reports whether the caller may run privileged operations.
func (rc RequestContext) IsAdmin() bool {
	switch strings.ToLower(strings.TrimSpace(rc.Role)) {
	case RoleAdmin, RoleOwner:
		return true
	}
	return false
}

// Authenticated reports whether an identity was established.
func (rc RequestContext) Authenticated() bool {
	return rc.UserID > 0 || rc.IsAdmin()
}

// CanAccessUser is true for the user themself and for admins.
func (rc RequestContext) CanAccessUser(userID int64) bool {
	if rc.IsAdmin() {
		return true
	}
	return rc.UserID > 0 && int64(rc.UserID) == userID
}
