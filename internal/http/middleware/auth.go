// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Authenticate parses a
// JWT from the Authorization header and stores the authenticated principal
// (subject id and role) in the Gin context; RequirePatient and RequireAdmin
// gate route groups by role.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrahman/clinic-portal-backend/internal/services"
)

// Context keys under which the authenticated principal is stored.
const (
	ctxKeyUserID = "userID"
	ctxKeyRole   = "userRole"
)

// UserID returns the authenticated subject id set by Authenticate.
// The second return value indicates presence.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// Role returns the authenticated role ("patient" or "admin") set by
// Authenticate, or empty when the request is anonymous.
func Role(c *gin.Context) services.Role {
	v, ok := c.Get(ctxKeyRole)
	if !ok {
		return ""
	}
	r, _ := v.(services.Role)
	return r
}

// Authenticate returns a middleware that parses the Authorization header when
// present and stashes the verified identity in the context.
//
// Behavior:
//   - No Authorization header: the request proceeds anonymously. Role checks
//     are left to RequirePatient / RequireAdmin so public routes stay public.
//   - A malformed or expired bearer token aborts with 401 to avoid requests
//     proceeding with a half-trusted identity.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if raw == header || raw == "" {
			abortAuth(c, "authorization header must use the Bearer scheme")
			return
		}

		claims, err := services.ParseToken(raw, secret)
		if err != nil {
			abortAuth(c, "invalid or expired token")
			return
		}

		c.Set(ctxKeyUserID, claims.Subject)
		c.Set(ctxKeyRole, claims.Role)
		c.Next()
	}
}

// RequirePatient aborts with 401 unless a patient identity was established by
// Authenticate earlier in the chain.
func RequirePatient() gin.HandlerFunc {
	return requireRole(services.RolePatient)
}

// RequireAdmin aborts with 401 for anonymous requests and 403 for
// authenticated non-admin identities.
func RequireAdmin() gin.HandlerFunc {
	return requireRole(services.RoleAdmin)
}

func requireRole(want services.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok || id == "" {
			abortAuth(c, "authentication required")
			return
		}
		if Role(c) != want {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "forbidden",
				"message":    "insufficient role for this resource",
			})
			return
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
