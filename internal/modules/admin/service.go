package admin

import (
	"context"
	"errors"
	"strings"

	"clinicdesk/internal/domain"
	"clinicdesk/internal/modules/auth"
)

var ErrInvalidStaffRole = errors.New("role is not a staff role")

// UserRepositoryInterface — account management surface the admin service needs.
type UserRepositoryInterface interface {
	Create(ctx context.Context, u *domain.User) error
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]domain.User, error)
	ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
}

// SessionRevoker lets an admin force-logout a user everywhere.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

// Service holds the admin-only account management logic.
type Service struct {
	users    UserRepositoryInterface
	sessions SessionRevoker
}

func NewService(users UserRepositoryInterface, sessions SessionRevoker) *Service {
	return &Service{users: users, sessions: sessions}
}

// ListUsers returns accounts, optionally filtered to a single role.
func (s *Service) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	if role == "" {
		return s.users.List(ctx)
	}
	r := domain.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return []domain.User{}, nil
	}
	return s.users.ListByRoles(ctx, r)
}

// CreateStaff provisions a staff-side account. Customer and admin
// accounts are out of bounds here: customers self-register, and another
// admin is created out of band.
func (s *Service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*domain.User, error) {
	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	switch role {
	case domain.RoleManager, domain.RoleDoctor, domain.RoleStaff:
	default:
		return nil, ErrInvalidStaffRole
	}

	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, auth.ErrUsernameTaken
	}
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, auth.ErrEmailAlreadyExists
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		StaffID:      req.StaffRecordID,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// ForceLogout revokes every session of the given user.
func (s *Service) ForceLogout(ctx context.Context, userID int64) error {
	return s.sessions.RevokeAllForUser(ctx, userID)
}
