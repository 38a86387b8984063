package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"clinicdesk/internal/domain"
	"clinicdesk/internal/pkg/metrics"
	"clinicdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

// CookieConfig controls how the refresh token cookie is written.
type CookieConfig struct {
	Secure   bool
	SameSite string
	Path     string
	MaxAge   time.Duration
}

// Handler manages all HTTP interactions for authentication.
type Handler struct {
	service *Service
	cookies CookieConfig
}

func NewHandler(service *Service, cookies CookieConfig) *Handler {
	return &Handler{service: service, cookies: cookies}
}

// Login verifies credentials and returns an access/refresh pair. The
// refresh token is additionally set as an httpOnly cookie.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Username or password is incorrect")
			return
		}
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Failed to login")
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"user": toUserPublic(result.User),
		"tokens": gin.H{
			"access_token":  result.Tokens.AccessToken,
			"refresh_token": result.Tokens.RefreshToken,
		},
	})
}

// Register creates a customer account.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.RegisterCustomer(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			response.Error(c, http.StatusConflict, "USERNAME_TAKEN", "This username is already taken")
		case errors.Is(err, ErrEmailAlreadyExists):
			response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "This email is already registered")
		default:
			response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", "Failed to register")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": toUserPublic(user)})
}

// Refresh rotates the presented refresh token and returns a new pair.
// The token is read from the cookie, with a JSON body fallback for
// non-browser clients.
func (h *Handler) Refresh(c *gin.Context) {
	refreshRaw := h.refreshTokenFromRequest(c)
	if refreshRaw == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token is missing")
		return
	}

	result, err := h.service.RefreshSession(c.Request.Context(), refreshRaw)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRefreshToken), errors.Is(err, ErrRefreshTokenReused):
			h.clearRefreshCookie(c)
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token is invalid or expired")
		default:
			response.Error(c, http.StatusInternalServerError, "REFRESH_FAILED", "Failed to refresh session")
		}
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"tokens": gin.H{
			"access_token":  result.Tokens.AccessToken,
			"refresh_token": result.Tokens.RefreshToken,
		},
	})
}

// Logout revokes the caller's session family and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	refreshRaw := h.refreshTokenFromRequest(c)
	if refreshRaw != "" {
		if err := h.service.Logout(c.Request.Context(), refreshRaw); err != nil {
			response.Error(c, http.StatusInternalServerError, "LOGOUT_FAILED", "Failed to logout")
			return
		}
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns the caller's profile, read fresh from the user store.
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	user, err := h.service.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "User not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": toUserPublic(user)})
}

// ChangePassword updates the caller's password and revokes all of their
// sessions, forcing a re-login everywhere.
func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Current password is incorrect")
			return
		}
		response.Error(c, http.StatusInternalServerError, "PASSWORD_CHANGE_FAILED", "Failed to change password")
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Password changed, please log in again"})
}

func (h *Handler) refreshTokenFromRequest(c *gin.Context) string {
	if raw, err := c.Cookie(refreshCookieName); err == nil && strings.TrimSpace(raw) != "" {
		return strings.TrimSpace(raw)
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return strings.TrimSpace(req.RefreshToken)
	}
	return ""
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(refreshCookieName, token, int(h.cookies.MaxAge.Seconds()), h.cookies.Path, "", h.cookies.Secure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookies.SameSite))
	c.SetCookie(refreshCookieName, "", -1, h.cookies.Path, "", h.cookies.Secure, true)
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func toUserPublic(u *domain.User) UserPublic {
	return UserPublic{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Name:       u.Name,
		Role:       string(u.Role),
		StaffID:    u.StaffID,
		CustomerID: u.CustomerID,
	}
}
