package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"seatengine/internal/domain"
)

// RequireRoles only lets requests through whose "userRole" is in allowedRoles.
// Auth must run first.
//
//	r.GET("/admin", RequireRoles("owner", "admin"), handler)
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(userRoleKey)
		if role == "" {
			abortUnauthorized(c, "unauthorized: no role on request")
			return
		}
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message":    "forbidden: role not allowed",
				"code":       "forbidden",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin accepts an admin/owner token or an X-Admin-Key matching the
// bcrypt hash. An empty hash disables the key.
func RequireAdmin(adminKeyHash string) gin.HandlerFunc {
	roles := RequireRoles(domain.RoleAdmin, domain.RoleOwner)
	hash := []byte(strings.TrimSpace(adminKeyHash))
	return func(c *gin.Context) {
		if key := c.GetHeader("X-Admin-Key"); key != "" && len(hash) > 0 && !Caller(c).IsAdmin() {
			if bcrypt.CompareHashAndPassword(hash, []byte(key)) != nil {
				abortUnauthorized(c, "invalid admin key")
				return
			}
			rc := Caller(c)
			rc.Role = domain.RoleAdmin
			SetCaller(c, rc)
		}
		roles(c)
	}
}
