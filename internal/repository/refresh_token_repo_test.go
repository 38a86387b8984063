package repository

import (
	"context"
	"testing"
	"time"

	"clinicdesk/internal/database"
	"clinicdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	u := &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "x",
		Role:         domain.RoleCustomer,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func activeToken(userID int64, hash string) *domain.RefreshToken {
	return &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestRefreshTokenRepository_CreateAndGet(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	tok := activeToken(user.ID, "hash-1")
	require.NoError(t, repo.Create(ctx, tok))

	assert.NotEmpty(t, tok.FamilyID, "fresh login must start a new family")
	assert.NotEmpty(t, tok.JTI)
	assert.Equal(t, domain.TokenActive, tok.Status)

	got, err := repo.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, tok.ID, got.ID)
	assert.Equal(t, tok.FamilyID, got.FamilyID)

	_, err = repo.GetByHash(ctx, "no-such-hash")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefreshTokenRepository_RotateHappyPath(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	old := activeToken(user.ID, "hash-old")
	require.NoError(t, repo.Create(ctx, old))

	next := activeToken(user.ID, "hash-new")
	require.NoError(t, repo.Rotate(ctx, old, next))

	// consumed record is tombstoned
	stored, err := repo.GetByHash(ctx, "hash-old")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenRotated, stored.Status)
	assert.NotNil(t, stored.RotatedAt)

	// child is active in the same family, linked to its parent
	child, err := repo.GetByHash(ctx, "hash-new")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenActive, child.Status)
	assert.Equal(t, old.FamilyID, child.FamilyID)
	require.NotNil(t, child.RotatedFrom)
	assert.Equal(t, old.ID, *child.RotatedFrom)
}

func TestRefreshTokenRepository_RotateWinsAtMostOnce(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	old := activeToken(user.ID, "hash-old")
	require.NoError(t, repo.Create(ctx, old))

	require.NoError(t, repo.Rotate(ctx, old, activeToken(user.ID, "hash-winner")))

	// second rotation of the same starting record loses the CAS
	err := repo.Rotate(ctx, old, activeToken(user.ID, "hash-loser"))
	assert.ErrorIs(t, err, ErrRotationConflict)

	// the loser's child must not have been inserted
	_, err = repo.GetByHash(ctx, "hash-loser")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefreshTokenRepository_RotateRevokedRecordConflicts(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	old := activeToken(user.ID, "hash-old")
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Revoke(ctx, old.ID))

	err := repo.Rotate(ctx, old, activeToken(user.ID, "hash-new"))
	assert.ErrorIs(t, err, ErrRotationConflict)
}

func TestRefreshTokenRepository_RevokeIsIdempotent(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	tok := activeToken(user.ID, "hash-1")
	require.NoError(t, repo.Create(ctx, tok))

	require.NoError(t, repo.Revoke(ctx, tok.ID))
	require.NoError(t, repo.Revoke(ctx, tok.ID))

	stored, err := repo.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenRevoked, stored.Status)
}

func TestRefreshTokenRepository_RevokeFamilySweepsEveryState(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	root := activeToken(user.ID, "hash-root")
	require.NoError(t, repo.Create(ctx, root))
	child := activeToken(user.ID, "hash-child")
	require.NoError(t, repo.Rotate(ctx, root, child))

	// unrelated family must not be touched
	other := activeToken(user.ID, "hash-other")
	require.NoError(t, repo.Create(ctx, other))

	require.NoError(t, repo.RevokeFamily(ctx, root.FamilyID))

	for _, hash := range []string{"hash-root", "hash-child"} {
		stored, err := repo.GetByHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, domain.TokenRevoked, stored.Status, "token %s", hash)
	}

	untouched, err := repo.GetByHash(ctx, "hash-other")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenActive, untouched.Status)
}

func TestRefreshTokenRepository_RevokeAllForUser(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, activeToken(user.ID, "hash-a")))
	require.NoError(t, repo.Create(ctx, activeToken(user.ID, "hash-b")))

	require.NoError(t, repo.RevokeAllForUser(ctx, user.ID))

	for _, hash := range []string{"hash-a", "hash-b"} {
		stored, err := repo.GetByHash(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, domain.TokenRevoked, stored.Status)
	}
}

func TestRefreshTokenRepository_MarkReuse(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	tok := activeToken(user.ID, "hash-1")
	require.NoError(t, repo.Create(ctx, tok))

	require.NoError(t, repo.MarkReuse(ctx, tok.ID))

	stored, err := repo.GetByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.NotNil(t, stored.ReuseDetectedAt)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db := setupDB(t)
	user := seedUser(t, db)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	stale := activeToken(user.ID, "hash-stale")
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, activeToken(user.ID, "hash-live")))

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.GetByHash(ctx, "hash-stale")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByHash(ctx, "hash-live")
	assert.NoError(t, err)
}
