package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSecret = "0123456789abcdef0123456789abcdef"

func TestFromEnvRequiresSecret(t *testing.T) {
	t.Setenv("CSRF_SECRET", "")
	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("CSRF_SECRET", "too-short")
	_, err = FromEnv()
	require.Error(t, err)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CSRF_SECRET", validSecret)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.False(t, cfg.Production())
	assert.Equal(t, 24*time.Hour, cfg.Session.SessionTTL)
	assert.Equal(t, 5*time.Minute, cfg.Session.ChallengeTTL)
	assert.Equal(t, time.Hour, cfg.Csrf.TokenTTL)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 60, cfg.RateLimit.MaxRequests)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CSRF_SECRET", validSecret)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_TTL", "3600")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, time.Hour, cfg.Session.SessionTTL)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestFromEnvIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("CSRF_SECRET", validSecret)
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")
	t.Setenv("SESSION_TTL", "-5")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 24*time.Hour, cfg.Session.SessionTTL)
}
