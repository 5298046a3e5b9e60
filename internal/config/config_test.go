package config

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 480, cfg.Auth.InternalTokenTTLMinutes)
	assert.Equal(t, 120, cfg.Auth.ClientTokenTTLMinutes)
	assert.Equal(t, int64(8<<20), cfg.Upload.MaxDocumentBytes)
	assert.Equal(t, "Europe/Rome", cfg.Business.Timezone)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginAttemptWindow())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("AUTH_BCRYPT_COST", "12")
	t.Setenv("AUTH_CLIENT_TOKEN_TTL_MINUTES", "not-a-number")
	t.Setenv("BUSINESS_TIMEZONE", "UTC")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 120, cfg.Auth.ClientTokenTTLMinutes, "invalid ints fall back to defaults")
	assert.False(t, cfg.Postgres.RunMigrations)

	loc, err := cfg.Business.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("BUSINESS_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("bad redis db", func(t *testing.T) {
		t.Setenv("REDIS_DB", "x")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("default secret in production", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})
}
