package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"seatengine/internal/domain"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// Auth verifies an HS256 bearer token issued by the auth collaborator
// (claims user_id and role). Requests without a token continue anonymously;
// an invalid token is rejected.
func Auth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || len(key) == 0 {
			abortUnauthorized(c, "invalid authorization header")
			return
		}
		userID, role, err := parseToken(strings.TrimSpace(raw), key)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(userIDKey, userID)
		c.Set(userRoleKey, role)
		c.Next()
	}
}

func parseToken(raw string, key []byte) (int64, string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return 0, "", err
	}
	userID, err := claimInt(claims["user_id"])
	if err != nil {
		return 0, "", err
	}
	role, _ := claims["role"].(string)
	return userID, strings.ToLower(strings.TrimSpace(role)), nil
}

func claimInt(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	case nil:
		return 0, errors.New("user_id claim missing")
	default:
		return 0, fmt.Errorf("user_id claim has type %T", v)
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message":    msg,
		"code":       "unauthorized",
		"request_id": GetRequestID(c),
	})
}

// Caller returns the identity established by Auth or RequireAdmin.
func Caller(c *gin.Context) domain.RequestContext {
	var rc domain.RequestContext
	if v, ok := c.Get(userIDKey); ok {
		if id, ok := v.(int64); ok {
			rc.UserID = domain.ID(id)
		}
	}
	rc.Role = c.GetString(userRoleKey)
	return rc
}

// SetCaller is used by tests and by the admin key check.
func SetCaller(c *gin.Context, rc domain.RequestContext) {
	c.Set(userIDKey, int64(rc.UserID))
	c.Set(userRoleKey, rc.Role)
}
