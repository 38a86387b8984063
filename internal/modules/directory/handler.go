package directory

import (
	"context"
	"net/http"

	"clinicdesk/internal/domain"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// UserLister is the read surface the directory needs from the user store.
type UserLister interface {
	ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
}

// Handler serves the clinic directory: read-only listings of who holds
// which account, with different role requirements per listing.
type Handler struct {
	users UserLister
}

func NewHandler(users UserLister) *Handler {
	return &Handler{users: users}
}

// RegisterRoutes mounts the directory under /directory. The customer
// list is open to anyone on the clinic floor (staff or doctor, and
// everything above them); the staff roster is for managers up.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	dirGroup := protected.Group("/directory")
	{
		dirGroup.GET("/customers",
			middleware.RequireRole(domain.RoleStaff, domain.RoleDoctor), h.ListCustomers)
		dirGroup.GET("/staff",
			middleware.RequireRole(domain.RoleManager), h.ListStaff)
	}
}

func (h *Handler) ListCustomers(c *gin.Context) {
	users, err := h.users.ListByRoles(c.Request.Context(), domain.RoleCustomer)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list customers")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"customers": users})
}

func (h *Handler) ListStaff(c *gin.Context) {
	users, err := h.users.ListByRoles(c.Request.Context(),
		domain.RoleManager, domain.RoleDoctor, domain.RoleStaff)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list staff")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"staff": users})
}
