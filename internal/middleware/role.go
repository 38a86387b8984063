package middleware

import (
	"net/http"

	"clinicdesk/internal/domain"
	"clinicdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole declares the role requirement of the routes it guards:
// the caller passes if their role subsumes any of the required ones.
// The denial carries both sides for operator diagnostics.
func RequireRole(required ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		roleStr, ok := roleVal.(string)
		caller := domain.Role(roleStr)
		if !ok || !caller.Valid() {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Unknown role")
			c.Abort()
			return
		}

		if !caller.SatisfiesAny(required...) {
			response.ErrorWithDetails(c, http.StatusForbidden, "FORBIDDEN",
				"Access denied: insufficient role",
				gin.H{"required": required, "actual": caller})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AdminOnly requires the admin role.
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
