package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"clinicdesk/internal/domain"
	"clinicdesk/internal/pkg/metrics"
	"clinicdesk/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type jwtService interface {
	GenerateToken(u *domain.User) (string, error)
}

// Service contains the authentication business logic: credential
// verification, token issuance, and the refresh rotation protocol.
type Service struct {
	users      UserRepositoryInterface
	tokens     RefreshTokenRepositoryInterface
	jwt        jwtService
	pepper     string
	refreshTTL time.Duration
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type LoginResult struct {
	User   *domain.User
	Tokens TokenPair
}

func NewService(
	users UserRepositoryInterface,
	tokens RefreshTokenRepositoryInterface,
	jwt jwtService,
	refreshTokenPepper string,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		jwt:        jwt,
		pepper:     refreshTokenPepper,
		refreshTTL: refreshTTL,
	}
}

// Login verifies credentials and issues a fresh access/refresh pair,
// starting a new rotation family. Unknown usernames and wrong passwords
// both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueFreshPair(ctx, user)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: *pair}, nil
}

// RegisterCustomer creates a new customer account. Staff accounts are
// created through the admin surface, never by self-registration.
func (s *Service) RegisterCustomer(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// RefreshSession exchanges a still-valid refresh token for a new pair.
//
// State machine per record: not found or revoked → ErrInvalidRefreshToken;
// rotated → reuse: revoke the whole family and fail; active but expired
// → revoke and fail; active → consume via the store's conditional
// rotation, losing that race is treated as reuse too.
func (s *Service) RefreshSession(ctx context.Context, refreshRaw string) (*LoginResult, error) {
	hash := hashToken(refreshRaw, s.pepper)

	current, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	switch current.Status {
	case domain.TokenRevoked:
		return nil, ErrInvalidRefreshToken
	case domain.TokenRotated:
		return nil, s.handleReuse(ctx, current)
	}

	if current.IsExpired(time.Now()) {
		// hygiene: an expired token can never rotate again
		if err := s.tokens.Revoke(ctx, current.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	// re-derive the identity fresh from the user store
	user, err := s.users.GetByID(ctx, current.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	newRaw, newHash, err := generateOpaqueToken(s.pepper)
	if err != nil {
		return nil, err
	}

	next := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: newHash,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokens.Rotate(ctx, current, next); err != nil {
		if errors.Is(err, repository.ErrRotationConflict) {
			// a concurrent refresh consumed this record first
			return nil, s.handleReuse(ctx, current)
		}
		return nil, err
	}
	metrics.TokenRotationsTotal.Inc()

	user.PasswordHash = ""
	return &LoginResult{
		User:   user,
		Tokens: TokenPair{AccessToken: accessToken, RefreshToken: newRaw},
	}, nil
}

// handleReuse runs the theft response: mark the record, revoke the whole
// rotation family, and fail the request. The revocation must happen even
// though the caller gets an error either way.
func (s *Service) handleReuse(ctx context.Context, current *domain.RefreshToken) error {
	if err := s.tokens.MarkReuse(ctx, current.ID); err != nil {
		return err
	}
	if err := s.tokens.RevokeFamily(ctx, current.FamilyID); err != nil {
		return err
	}
	metrics.TokenReuseDetectedTotal.Inc()
	return ErrRefreshTokenReused
}

// Logout revokes the rotation family of the presented refresh token.
// Idempotent: an unknown or already-revoked token is not an error.
func (s *Service) Logout(ctx context.Context, refreshRaw string) error {
	hash := hashToken(refreshRaw, s.pepper)

	current, err := s.tokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return s.tokens.RevokeFamily(ctx, current.FamilyID)
}

// CurrentUser loads the caller's profile from the user store.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every session of the subject.
func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *Service) issueFreshPair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	raw, hash, err := generateOpaqueToken(s.pepper)
	if err != nil {
		return nil, err
	}

	record := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: raw}, nil
}

// HashPassword hashes a plain password string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func generateOpaqueToken(pepper string) (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw, pepper), nil
}

func hashToken(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
