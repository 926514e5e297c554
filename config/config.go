// Package config loads service configuration from the environment.
// Configuration is read once at startup and passed by reference; there is
// no global configuration state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinCsrfSecretLength is the minimum accepted CSRF secret size. A shorter
// secret is a deployment error and fatal at startup.
const MinCsrfSecretLength = 32

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Session   SessionConfig
	Csrf      CsrfConfig
	RateLimit RateLimitConfig
	RedisURL  string
}

// ServerConfig holds transport-level settings.
type ServerConfig struct {
	ListenAddr string
	Env        string // "production" enables Secure cookies
	SigningKey string // hex-encoded P-256 private key; generated when empty
}

// SessionConfig holds session and challenge lifetimes.
type SessionConfig struct {
	SessionTTL   time.Duration
	ChallengeTTL time.Duration
}

// CsrfConfig holds CSRF token settings. The secret is never logged.
type CsrfConfig struct {
	Secret   string
	TokenTTL time.Duration
}

// RateLimitConfig holds the sliding window parameters.
type RateLimitConfig struct {
	Window      time.Duration
	MaxRequests int
}

// FromEnv builds a Config from environment variables, applying defaults
// for everything except CSRF_SECRET, which is required.
func FromEnv() (*Config, error) {
	secret := os.Getenv("CSRF_SECRET")
	if len(secret) < MinCsrfSecretLength {
		return nil, fmt.Errorf("CSRF_SECRET must be set and at least %d characters", MinCsrfSecretLength)
	}

	cfg := &Config{
		Server: ServerConfig{
			ListenAddr: envString("LISTEN_ADDR", ":9000"),
			Env:        envString("APP_ENV", "development"),
			SigningKey: os.Getenv("SIGNING_KEY"),
		},
		Session: SessionConfig{
			SessionTTL:   envSeconds("SESSION_TTL", 86400),
			ChallengeTTL: envSeconds("CHALLENGE_TTL", 300),
		},
		Csrf: CsrfConfig{
			Secret:   secret,
			TokenTTL: envSeconds("CSRF_TTL", 3600),
		},
		RateLimit: RateLimitConfig{
			Window:      envSeconds("RATE_LIMIT_WINDOW", 60),
			MaxRequests: envInt("RATE_LIMIT_MAX", 60),
		},
		RedisURL: os.Getenv("REDIS_URL"),
	}

	return cfg, nil
}

// Production reports whether the service runs with production hardening.
func (c *Config) Production() bool {
	return c.Server.Env == "production"
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envSeconds(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Second
}
