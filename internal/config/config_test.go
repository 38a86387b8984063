package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "Lax", cfg.CookieSameSite)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProdRefusesDefaultSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "prod")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	t.Setenv("JWT_SECRET", "real-secret-value")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_TOKEN_PEPPER")

	t.Setenv("REFRESH_TOKEN_PEPPER", "real-pepper-value")
	_, err = Load()
	assert.NoError(t, err)
}

func TestLoad_SameSiteNoneRequiresSecure(t *testing.T) {
	t.Setenv("COOKIE_SAMESITE", "None")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("COOKIE_SECURE", "true")
	_, err = Load()
	assert.NoError(t, err)
}
