package admin

import (
	"errors"
	"net/http"
	"strconv"

	"clinicdesk/internal/middleware"
	"clinicdesk/internal/modules/auth"
	"clinicdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler exposes the admin-only account management endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the admin surface under /admin. Every route
// requires the admin role on top of a valid access token.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	adminGroup := protected.Group("/admin")
	adminGroup.Use(middleware.AdminOnly())
	{
		adminGroup.GET("/users", h.ListUsers)
		adminGroup.POST("/staff", h.CreateStaff)
		adminGroup.POST("/users/:id/logout", h.ForceLogout)
	}
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), c.Query("role"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list users")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": users})
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.CreateStaff(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStaffRole):
			response.Error(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be manager, doctor or staff")
		case errors.Is(err, auth.ErrUsernameTaken):
			response.Error(c, http.StatusConflict, "USERNAME_TAKEN", "This username is already taken")
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
		default:
			response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "Failed to create staff account")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) ForceLogout(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	if err := h.service.ForceLogout(c.Request.Context(), userID); err != nil {
		response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to revoke sessions")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Sessions revoked"})
}
