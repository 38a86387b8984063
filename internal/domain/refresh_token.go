package domain

import "time"

// TokenStatus is the lifecycle state of a refresh token record.
// A record moves active → rotated exactly once, or active → revoked.
// Both rotated and revoked are terminal for the record; the family
// continues through the child created by the rotation.
type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenRotated TokenStatus = "rotated"
	TokenRevoked TokenStatus = "revoked"
)

// RefreshToken is the only server-held session state.
//
// Security notes:
//   - The raw token value is never stored, only its SHA-256 hash.
//   - Each successful refresh rotates the token: the consumed record is
//     tombstoned (rotated) and a child record is inserted in the same
//     family. Presenting an already-rotated token is treated as theft
//     and revokes the whole family.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	FamilyID  string      `json:"family_id" gorm:"size:36;index;not null"`
	JTI       string      `json:"jti" gorm:"size:36;uniqueIndex;not null"`
	TokenHash string      `json:"-" gorm:"size:64;uniqueIndex;not null"`
	Status    TokenStatus `json:"status" gorm:"size:16;index;not null;default:active"`

	RotatedFrom *int64 `json:"rotated_from,omitempty" gorm:"index"`

	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at" gorm:"index;not null"`
	RotatedAt       *time.Time `json:"rotated_at,omitempty"`
	RevokedAt       *time.Time `json:"revoked_at,omitempty"`
	ReuseDetectedAt *time.Time `json:"reuse_detected_at,omitempty"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

func (t *RefreshToken) IsActive() bool {
	return t.Status == TokenActive
}
