// Package config manages application configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSessionSecret = "tillerstead-admin-secret-change-in-production"

// ErrInsecureSecret is returned by Validate when production runs with the default secret.
var ErrInsecureSecret = errors.New("SESSION_SECRET must be set in production")

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"

	// Storage
	DataDir       string
	StorageDriver string // "file" or "sqlite"
	DatabaseURL   string

	// Security
	SessionSecret      string
	APIKeyPepper       string
	SessionIdleTimeout time.Duration
	BruteForce         BruteForceConfig
	RateLimits         RateLimitConfig
	IPWhitelist        []string
	IPBlacklist        []string
	Roles              map[string][]string

	// Seed admin
	AdminEmail    string
	AdminPassword string

	// Email
	EmailEnabled bool
	EmailFrom    string
	SMTP         SMTPConfig

	// Remote calculator API
	ToolkitAPIURL string
}

// BruteForceConfig tunes login lockout
type BruteForceConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

// RateLimit is a fixed-window request budget
type RateLimit struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// RateLimitConfig groups the three request limiters
type RateLimitConfig struct {
	API    RateLimit `yaml:"api"`
	Auth   RateLimit `yaml:"auth"`
	Modify RateLimit `yaml:"modify"`
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// overlay is the shape of the optional YAML file at ADMIN_CONFIG_FILE
type overlay struct {
	IPFilter struct {
		Whitelist []string `yaml:"whitelist"`
		Blacklist []string `yaml:"blacklist"`
	} `yaml:"ipFilter"`
	Roles      map[string][]string `yaml:"roles"`
	RateLimits *RateLimitConfig    `yaml:"rateLimits"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", ".")

	cfg := &Config{
		Port:               getEnv("ADMIN_PORT", "3001"),
		Environment:        getEnv("NODE_ENV", "development"),
		DataDir:            dataDir,
		StorageDriver:      getEnv("STORAGE_DRIVER", "file"),
		DatabaseURL:        getEnv("DATABASE_URL", filepath.Join(dataDir, "tillerstead-admin.db")),
		SessionSecret:      getEnv("SESSION_SECRET", defaultSessionSecret),
		APIKeyPepper:       os.Getenv("API_KEY_PEPPER"),
		SessionIdleTimeout: getDurationEnv("SESSION_IDLE_TIMEOUT", 24*time.Hour),
		BruteForce: BruteForceConfig{
			MaxAttempts: getIntEnv("BRUTE_FORCE_MAX_ATTEMPTS", 5),
			Window:      getDurationEnv("BRUTE_FORCE_WINDOW", 15*time.Minute),
			Lockout:     getDurationEnv("BRUTE_FORCE_LOCKOUT", 15*time.Minute),
		},
		RateLimits:    DefaultRateLimits(),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@tillerstead.com"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		EmailEnabled:  getBoolEnv("EMAIL_ENABLED", false),
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@tillerstead.com"),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getIntEnv("SMTP_PORT", 587),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
		},
		ToolkitAPIURL: os.Getenv("TOOLKIT_API_URL"),
	}

	if path := os.Getenv("ADMIN_CONFIG_FILE"); path != "" {
		if err := cfg.applyOverlay(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DefaultRateLimits returns the api, auth and modify budgets
func DefaultRateLimits() RateLimitConfig {
	return RateLimitConfig{
		API:    RateLimit{Max: 100, Window: 15 * time.Minute},
		Auth:   RateLimit{Max: 5, Window: 15 * time.Minute},
		Modify: RateLimit{Max: 30, Window: time.Minute},
	}
}

func (c *Config) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.IPWhitelist = o.IPFilter.Whitelist
	c.IPBlacklist = o.IPFilter.Blacklist
	c.Roles = o.Roles
	if o.RateLimits != nil {
		// Zero values keep the defaults
		mergeLimit(&c.RateLimits.API, o.RateLimits.API)
		mergeLimit(&c.RateLimits.Auth, o.RateLimits.Auth)
		mergeLimit(&c.RateLimits.Modify, o.RateLimits.Modify)
	}
	return nil
}

func mergeLimit(dst *RateLimit, src RateLimit) {
	if src.Max > 0 {
		dst.Max = src.Max
	}
	if src.Window > 0 {
		dst.Window = src.Window
	}
}

// Validate rejects configurations that are unsafe to run
func (c *Config) Validate() error {
	if c.IsProduction() && c.SessionSecret == defaultSessionSecret {
		return ErrInsecureSecret
	}
	if c.StorageDriver != "file" && c.StorageDriver != "sqlite" {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.BruteForce.MaxAttempts < 1 {
		return fmt.Errorf("BRUTE_FORCE_MAX_ATTEMPTS must be positive, got %d", c.BruteForce.MaxAttempts)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Path resolves a file name inside the data directory
func (c *Config) Path(parts ...string) string {
	return filepath.Join(append([]string{c.DataDir}, parts...)...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
