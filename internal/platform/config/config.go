// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file
is loaded first when present so developers need no exported variables.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (storage, collaborators) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Storage Backends

const (
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the CineScript API server and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// StorageBackend selects the durable key-value substrate.
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"redis"`

	// StorageKeyPrefix namespaces the persisted snapshot keys.
	StorageKeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"cinescript_"`

	// Key-Value Store (Redis)
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Generative collaborators (Gemini). Features are disabled without a key.
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL    string        `env:"GEMINI_BASE_URL"     envDefault:"https://generativelanguage.googleapis.com/v1beta"`
	GeminiTextModel  string        `env:"GEMINI_TEXT_MODEL"   envDefault:"gemini-2.5-flash"`
	GeminiImageModel string        `env:"GEMINI_IMAGE_MODEL"  envDefault:"gemini-2.5-flash-image"`
	GeminiTimeout    time.Duration `env:"GEMINI_TIMEOUT"      envDefault:"60s"`

	// Cross-Origin Resource Sharing (comma separated)
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`

	// StrictInvariants rejects mutations that break ordering or selection
	// invariants. Unset means "strict outside production".
	StrictInvariants *bool `env:"STRICT_INVARIANTS"`
}

// # Configuration Loading

// Load reads an optional .env file and parses environment variables into a [Config].
func Load(dotenvFiles ...string) (*Config, error) {

	// Values already present in the environment win over the file.
	if err := godotenv.Load(dotenvFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	// Initialize an empty config struct
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks cross-field requirements the struct tags cannot express.
func (c *Config) validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))

	switch c.StorageBackend {
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required for the redis backend")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q (want redis, postgres or memory)", c.StorageBackend)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Strict reports whether invariant violations must fail loudly.
func (c *Config) Strict() bool {
	if c.StrictInvariants != nil {
		return *c.StrictInvariants
	}
	return !c.IsProduction()
}

// AllowedOrigins returns the extra CORS origins accepted outside development.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}

// GeminiEnabled reports whether the generative collaborators are configured.
func (c *Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}
