package jwt

import (
	"errors"
	"time"

	"clinicdesk/internal/domain"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenMalformed   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
)

// Service issues and validates signed access tokens. Validation is
// stateless: signature and expiry are the only things that decide
// whether a token is good.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// Claims carries the caller's identity inside the access token.
// Only identity fields plus iat/exp — no mutable server state.
type Claims struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	StaffID    *int64 `json:"staff_id,omitempty"`
	CustomerID *int64 `json:"customer_id,omitempty"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.ttl }

// GenerateToken mints a signed access token for the given user.
func (s *Service) GenerateToken(u *domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:     u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       string(u.Role),
		StaffID:    u.StaffID,
		CustomerID: u.CustomerID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken verifies signature and expiry of an access token and
// returns its claims. There is no grace window: a token whose exp has
// passed fails with ErrTokenExpired.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwtlib.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwtlib.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrSignatureInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	if !domain.Role(claims.Role).Valid() {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// Identity rebuilds the authenticated principal from token claims.
func (c *Claims) Identity() *domain.User {
	return &domain.User{
		ID:         c.UserID,
		Username:   c.Username,
		Email:      c.Email,
		Role:       domain.Role(c.Role),
		StaffID:    c.StaffID,
		CustomerID: c.CustomerID,
	}
}
