package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicdesk/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrRotationConflict is returned by Rotate when the starting record was
// no longer active — another rotation already consumed it. The caller
// must treat this as token reuse.
var ErrRotationConflict = errors.New("refresh token already consumed")

// RefreshTokenRepository provides DB access for refresh token records.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create inserts a new active record. FamilyID and JTI are generated
// when empty, so a fresh login starts a new rotation family.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	if t.FamilyID == "" {
		t.FamilyID = uuid.NewString()
	}
	if t.JTI == "" {
		t.JTI = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.TokenActive
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("creating refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Rotate atomically tombstones old and inserts next as its child in the
// same family. The active→rotated transition is a single conditional
// UPDATE, so when two rotations race on one record exactly one of them
// wins; the loser gets ErrRotationConflict. A plain read-then-write
// would reintroduce that race.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, old *domain.RefreshToken, next *domain.RefreshToken) error {
	now := time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.RefreshToken{}).
			Where("id = ? AND status = ?", old.ID, domain.TokenActive).
			Updates(map[string]any{
				"status":     domain.TokenRotated,
				"rotated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("tombstoning refresh token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRotationConflict
		}

		next.FamilyID = old.FamilyID
		next.RotatedFrom = &old.ID
		if next.JTI == "" {
			next.JTI = uuid.NewString()
		}
		next.Status = domain.TokenActive

		if err := tx.Create(next).Error; err != nil {
			return fmt.Errorf("creating rotated refresh token: %w", err)
		}
		return nil
	})
}

// MarkReuse records the reuse timestamp on a tombstoned record, for
// audit. The family revocation that accompanies it is RevokeFamily.
func (r *RefreshTokenRepository) MarkReuse(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("id = ? AND reuse_detected_at IS NULL", id).
		Update("reuse_detected_at", now).Error
}

// Revoke marks a single record revoked. Idempotent: revoking an
// already-revoked or already-rotated record is not an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("id = ? AND status <> ?", id, domain.TokenRevoked).
		Updates(map[string]any{
			"status":     domain.TokenRevoked,
			"revoked_at": now,
		}).Error
}

// RevokeFamily marks every record in a rotation family revoked,
// regardless of current state. Used on logout and on reuse detection.
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, familyID string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("family_id = ? AND status <> ?", familyID, domain.TokenRevoked).
		Updates(map[string]any{
			"status":     domain.TokenRevoked,
			"revoked_at": now,
		}).Error
}

// RevokeAllForUser revokes every record owned by a user. Used on
// password change and admin force-logout.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND status <> ?", userID, domain.TokenRevoked).
		Updates(map[string]any{
			"status":     domain.TokenRevoked,
			"revoked_at": now,
		}).Error
}

// DeleteExpired removes records past their expiry. Returns the number
// of deleted rows.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
