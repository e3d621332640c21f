package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ADMIN_PORT", "")
	t.Setenv("NODE_ENV", "")
	t.Setenv("ADMIN_CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "file", cfg.StorageDriver)
	assert.Equal(t, 5, cfg.BruteForce.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.BruteForce.Window)
	assert.Equal(t, 15*time.Minute, cfg.BruteForce.Lockout)
	assert.Equal(t, 24*time.Hour, cfg.SessionIdleTimeout)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, DefaultRateLimits(), cfg.RateLimits)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADMIN_PORT", "9000")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("BRUTE_FORCE_MAX_ATTEMPTS", "3")
	t.Setenv("BRUTE_FORCE_LOCKOUT", "1h")
	t.Setenv("EMAIL_ENABLED", "true")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 3, cfg.BruteForce.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.BruteForce.Lockout)
	assert.True(t, cfg.EmailEnabled)
	assert.Equal(t, 587, cfg.SMTP.Port, "invalid ints fall back to the default")
}

func TestLoad_Overlay(t *testing.T) {
	t.Setenv("ADMIN_CONFIG_FILE", "testdata/overlay.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.IPWhitelist)
	assert.Equal(t, []string{"203.0.113.9"}, cfg.IPBlacklist)
	assert.Equal(t, []string{"calculator:*", "content:read"}, cfg.Roles["estimator"])

	assert.Equal(t, 10, cfg.RateLimits.Auth.Max)
	assert.Equal(t, 15*time.Minute, cfg.RateLimits.Auth.Window)
	assert.Equal(t, 30, cfg.RateLimits.Modify.Max)
	assert.Equal(t, 2*time.Minute, cfg.RateLimits.Modify.Window)
	assert.Equal(t, 100, cfg.RateLimits.API.Max)
}

func TestLoad_MissingOverlay(t *testing.T) {
	t.Setenv("ADMIN_CONFIG_FILE", "testdata/nope.yaml")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"development default secret", func(c *Config) {}, false},
		{"production default secret", func(c *Config) { c.Environment = "production" }, true},
		{"production custom secret", func(c *Config) {
			c.Environment = "production"
			c.SessionSecret = "s3cret"
		}, false},
		{"unknown driver", func(c *Config) { c.StorageDriver = "redis" }, true},
		{"zero attempts", func(c *Config) { c.BruteForce.MaxAttempts = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NODE_ENV", "development")
			t.Setenv("ADMIN_CONFIG_FILE", "")
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)

			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestPath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/tillerstead"}
	assert.Equal(t, "/var/lib/tillerstead/logs/audit.log", cfg.Path("logs", "audit.log"))
}
