package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:       "config-test-secret-of-at-least-32-bytes",
		JWTAccessTTL:    30 * time.Minute,
		JWTRefreshTTL:   168 * time.Hour,
		JWTResetTTL:     time.Hour,
		BcryptCost:      bcrypt.DefaultCost,
		TokenRevocation: RevocationDenylist,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"zero access ttl", func(c *Config) { c.JWTAccessTTL = 0 }},
		{"negative reset ttl", func(c *Config) { c.JWTResetTTL = -time.Minute }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = bcrypt.MinCost - 1 }},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = bcrypt.MaxCost + 1 }},
		{"unknown revocation mode", func(c *Config) { c.TokenRevocation = "blocklist" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-that-is-at-least-32-bytes!")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("TOKEN_REVOCATION", "none")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, RevocationNone, cfg.TokenRevocation)
	assert.False(t, cfg.RevocationEnabled())
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}
