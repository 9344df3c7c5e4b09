// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads runtime settings from PORTAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains example secrets that must never be deployed.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"PORTAL_DB_PATH" envDefault:"./data/portal.db"`
	SessionSecret string `env:"PORTAL_SESSION_SECRET,required"`
	ServerHost    string `env:"PORTAL_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"PORTAL_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"PORTAL_ENV" envDefault:"development"`
	LogLevel      string `env:"PORTAL_LOG_LEVEL" envDefault:"info"`

	// API tokens
	JWTSecret string        `env:"PORTAL_JWT_SECRET"`                    // Falls back to SessionSecret
	TokenTTL  time.Duration `env:"PORTAL_TOKEN_TTL" envDefault:"24h"`

	// Object storage
	UploadsDir    string `env:"PORTAL_UPLOADS_DIR" envDefault:"./uploads"`
	MaxUploadSize int64  `env:"PORTAL_MAX_UPLOAD_SIZE" envDefault:"10485760"` // Bytes

	// Cache configuration
	RedisURL     string `env:"PORTAL_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"PORTAL_CACHE_PREFIX" envDefault:"portal:"` // Redis key prefix
	CacheTTL     int    `env:"PORTAL_CACHE_TTL" envDefault:"300"`        // Public list TTL in seconds
	CacheMaxSize int    `env:"PORTAL_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Storage janitor
	JanitorSchedule      string        `env:"PORTAL_JANITOR_SCHEDULE" envDefault:"@daily"`
	JanitorIdentityEmail string        `env:"PORTAL_JANITOR_EMAIL"` // Janitor is disabled when empty
	JanitorGracePeriod   time.Duration `env:"PORTAL_JANITOR_GRACE" envDefault:"24h"`

	// Seeding configuration
	DoSeed        bool   `env:"PORTAL_DO_SEED" envDefault:"false"` // Create the initial admin on an empty DB
	AdminEmail    string `env:"PORTAL_ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string `env:"PORTAL_ADMIN_PASSWORD"`
	DemoMode      bool   `env:"PORTAL_DEMO_MODE" envDefault:"false"` // Load sample content
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// JanitorEnabled returns true if orphaned uploads should be swept.
func (c Config) JanitorEnabled() bool {
	return c.JanitorIdentityEmail != ""
}

// TokenSecret returns the secret used to sign API tokens.
func (c Config) TokenSecret() string {
	if c.JWTSecret != "" {
		return c.JWTSecret
	}
	return c.SessionSecret
}

// CacheTTLDuration returns CacheTTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level. Unknown values map to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := checkSecret("PORTAL_SESSION_SECRET", c.SessionSecret); err != nil {
		return err
	}
	if c.JWTSecret != "" {
		if err := checkSecret("PORTAL_JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
	}
	if c.TokenTTL <= 0 {
		return errors.New("PORTAL_TOKEN_TTL must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return errors.New("PORTAL_MAX_UPLOAD_SIZE must be positive")
	}
	if c.DoSeed && len(c.AdminPassword) < 8 {
		return errors.New("PORTAL_ADMIN_PASSWORD must be at least 8 characters when PORTAL_DO_SEED is set")
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("PORTAL_SERVER_PORT out of range: %d", c.ServerPort)
	}
	return nil
}

func checkSecret(name, secret string) error {
	if len(secret) < MinSessionSecretLength {
		return fmt.Errorf("%s must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			name, MinSessionSecretLength, len(secret))
	}

	for _, weak := range knownWeakSecrets {
		if secret == weak {
			return fmt.Errorf("%s is a known default value and must not be used; "+
				"generate a secure secret with: openssl rand -base64 32", name)
		}
	}

	if !hasMinimumEntropy(secret) {
		slog.Warn(name + " has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}
	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	classes := []string{
		"abcdefghijklmnopqrstuvwxyz",
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"0123456789",
		"!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\",
	}
	n := 0
	for _, class := range classes {
		if strings.ContainsAny(s, class) {
			n++
		}
	}
	return n >= 3
}
