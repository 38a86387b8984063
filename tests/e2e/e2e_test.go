package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinicdesk/internal/database"
	"clinicdesk/internal/domain"
	"clinicdesk/internal/middleware"
	"clinicdesk/internal/modules/admin"
	"clinicdesk/internal/modules/auth"
	"clinicdesk/internal/modules/directory"
	jwtsvc "clinicdesk/internal/pkg/jwt"
	"clinicdesk/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testSuite struct {
	router *gin.Engine
	db     *gorm.DB
}

type testResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *errorDetail           `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func setupSuite(t *testing.T) *testSuite {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}))

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 15*time.Minute)

	authService := auth.NewService(userRepo, tokenRepo, jwtService, "test-pepper", 7*24*time.Hour)
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		SameSite: "Lax",
		Path:     "/api/v1/auth",
		MaxAge:   7 * 24 * time.Hour,
	})

	adminService := admin.NewService(userRepo, tokenRepo)
	adminHandler := admin.NewHandler(adminService)
	directoryHandler := directory.NewHandler(userRepo)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	authHandler.RegisterPublicRoutes(v1, nil)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		adminHandler.RegisterRoutes(protected)
		directoryHandler.RegisterRoutes(protected)
	}

	suite := &testSuite{router: r, db: db}
	suite.seedUsers(t)
	return suite
}

func (s *testSuite) seedUsers(t *testing.T) {
	t.Helper()

	accounts := []struct {
		username string
		role     domain.Role
	}{
		{"admin", domain.RoleAdmin},
		{"meredith", domain.RoleManager},
		{"drharris", domain.RoleDoctor},
		{"samir", domain.RoleStaff},
		{"alice", domain.RoleCustomer},
	}

	for _, a := range accounts {
		hash, err := auth.HashPassword(a.username + "-password")
		require.NoError(t, err)
		require.NoError(t, s.db.Create(&domain.User{
			Username:     a.username,
			Email:        a.username + "@example.com",
			PasswordHash: hash,
			Role:         a.role,
		}).Error)
	}
}

func (s *testSuite) do(t *testing.T, method, path string, body any, accessToken string) (*httptest.ResponseRecorder, *testResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var parsed testResponse
	if len(w.Body.Bytes()) > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &parsed)
	}
	return w, &parsed
}

func (s *testSuite) login(t *testing.T, username string) (access string, refresh string) {
	t.Helper()

	w, resp := s.do(t, "POST", "/api/v1/auth/login", gin.H{
		"username": username,
		"password": username + "-password",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, "login %s: %s", username, w.Body.String())

	tokens := resp.Data["tokens"].(map[string]interface{})
	return tokens["access_token"].(string), tokens["refresh_token"].(string)
}

func TestLogin_InvalidCredentialsDoNotRevealExistence(t *testing.T) {
	s := setupSuite(t)

	wUnknown, respUnknown := s.do(t, "POST", "/api/v1/auth/login", gin.H{
		"username": "nobody", "password": "whatever",
	}, "")
	wWrongPw, respWrongPw := s.do(t, "POST", "/api/v1/auth/login", gin.H{
		"username": "alice", "password": "wrong",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wWrongPw.Code)
	require.NotNil(t, respUnknown.Error)
	require.NotNil(t, respWrongPw.Error)
	assert.Equal(t, respUnknown.Error.Code, respWrongPw.Error.Code)
	assert.Equal(t, respUnknown.Error.Message, respWrongPw.Error.Message)
}

func TestSessionLifecycle(t *testing.T) {
	s := setupSuite(t)

	// login → access + refresh pair
	access, refresh := s.login(t, "alice")

	// profile readable with the fresh access token
	w, resp := s.do(t, "GET", "/api/v1/users/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	user := resp.Data["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "customer", user["role"])

	// rotation: old refresh token is exchanged for a new pair
	w, resp = s.do(t, "POST", "/api/v1/auth/refresh", gin.H{"refresh_token": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	rotated := resp.Data["tokens"].(map[string]interface{})
	newAccess := rotated["access_token"].(string)
	newRefresh := rotated["refresh_token"].(string)
	assert.NotEqual(t, refresh, newRefresh)

	// the new access token works
	w, _ = s.do(t, "GET", "/api/v1/users/me", nil, newAccess)
	assert.Equal(t, http.StatusOK, w.Code)

	// replaying the consumed refresh token fails and burns the family
	w, _ = s.do(t, "POST", "/api/v1/auth/refresh", gin.H{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// ... including the successor issued by the legitimate rotation
	w, _ = s.do(t, "POST", "/api/v1/auth/refresh", gin.H{"refresh_token": newRefresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_MakesRefreshTokenUnusable(t *testing.T) {
	s := setupSuite(t)

	access, refresh := s.login(t, "alice")

	w, _ := s.do(t, "POST", "/api/v1/auth/logout", gin.H{"refresh_token": refresh}, access)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, "POST", "/api/v1/auth/refresh", gin.H{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleMatrix(t *testing.T) {
	s := setupSuite(t)

	tokens := map[string]string{}
	for _, username := range []string{"admin", "meredith", "drharris", "samir", "alice"} {
		access, _ := s.login(t, username)
		tokens[username] = access
	}

	tests := []struct {
		caller string
		path   string
		want   int
	}{
		// customer directory: staff or doctor tier
		{"samir", "/api/v1/directory/customers", http.StatusOK},
		{"drharris", "/api/v1/directory/customers", http.StatusOK},
		{"meredith", "/api/v1/directory/customers", http.StatusOK},
		{"admin", "/api/v1/directory/customers", http.StatusOK},
		{"alice", "/api/v1/directory/customers", http.StatusForbidden},

		// staff roster: manager and up; doctor and staff are siblings
		// below manager and must both be denied
		{"meredith", "/api/v1/directory/staff", http.StatusOK},
		{"admin", "/api/v1/directory/staff", http.StatusOK},
		{"drharris", "/api/v1/directory/staff", http.StatusForbidden},
		{"samir", "/api/v1/directory/staff", http.StatusForbidden},

		// admin surface: admin only
		{"admin", "/api/v1/admin/users", http.StatusOK},
		{"meredith", "/api/v1/admin/users", http.StatusForbidden},
		{"alice", "/api/v1/admin/users", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.caller, tt.path), func(t *testing.T) {
			w, _ := s.do(t, "GET", tt.path, nil, tokens[tt.caller])
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAdminCreatesStaffAccount(t *testing.T) {
	s := setupSuite(t)

	adminAccess, _ := s.login(t, "admin")

	w, resp := s.do(t, "POST", "/api/v1/admin/staff", gin.H{
		"username": "newnurse",
		"email":    "nurse@example.com",
		"password": "longenough1",
		"role":     "staff",
	}, adminAccess)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := resp.Data["user"].(map[string]interface{})
	assert.Equal(t, "staff", created["role"])

	// customer role cannot be provisioned through the admin surface
	w, _ = s.do(t, "POST", "/api/v1/admin/staff", gin.H{
		"username": "fakecustomer",
		"email":    "fake@example.com",
		"password": "longenough1",
		"role":     "customer",
	}, adminAccess)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminForceLogout(t *testing.T) {
	s := setupSuite(t)

	adminAccess, _ := s.login(t, "admin")
	_, aliceRefresh := s.login(t, "alice")

	var alice domain.User
	require.NoError(t, s.db.Where("username = ?", "alice").First(&alice).Error)

	w, _ := s.do(t, "POST", fmt.Sprintf("/api/v1/admin/users/%d/logout", alice.ID), nil, adminAccess)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, "POST", "/api/v1/auth/refresh", gin.H{"refresh_token": aliceRefresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePassword_RevokesSessions(t *testing.T) {
	s := setupSuite(t)

	access, refresh := s.login(t, "alice")

	w, _ := s.do(t, "POST", "/api/v1/users/me/password", gin.H{
		"current_password": "alice-password",
		"new_password":     "a-new-password1",
	}, access)
	require.Equal(t, http.StatusOK, w.Code)

	// old refresh token is dead
	w, _ = s.do(t, "POST", "/api/v1/auth/refresh", gin.H{"refresh_token": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// new password works
	w, _ = s.do(t, "POST", "/api/v1/auth/login", gin.H{
		"username": "alice", "password": "a-new-password1",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
