package auth

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes mounts the unauthenticated auth endpoints.
// loginLimiter, when non-nil, throttles the login route.
func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup, loginLimiter gin.HandlerFunc) {
	authGroup := v1.Group("/auth")
	{
		if loginLimiter != nil {
			authGroup.POST("/login", loginLimiter, h.Login)
		} else {
			authGroup.POST("/login", h.Login)
		}
		authGroup.POST("/register", h.Register)
		authGroup.POST("/refresh", h.Refresh)
	}
}

// RegisterProtectedRoutes mounts endpoints that require a valid access
// token. No role requirement: any authenticated caller may use them.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.POST("/auth/logout", h.Logout)

	userGroup := protected.Group("/users")
	{
		userGroup.GET("/me", h.GetMe)
		userGroup.POST("/me/password", h.ChangePassword)
	}
}
