// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, token signing) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// ErrConfigurationMissing is returned when a required variable is unset or empty.
// The server must not start without it.
var ErrConfigurationMissing = errors.New("config: required configuration missing")

// # Configuration Schema

// Config holds all runtime configuration for the auth API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8010"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Optional Redis dependency, reported by the readiness probe. Empty disables it.
	RedisURL string `env:"REDIS_URL"`

	// Token signing. Both values are mandatory; there is no built-in default secret.
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAlgorithm   string        `env:"JWT_ALGORITHM,required,notEmpty"`
	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"168h"`

	// Password hashing
	BcryptCost      int `env:"BCRYPT_COST"      envDefault:"10"`
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`

	// Cross-Origin Resource Sharing ("*" allows any origin)
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given key/value set instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Fields marked 'required'/'notEmpty' fail the parse when absent.
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		if keys := missingKeys(err); len(keys) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrConfigurationMissing, strings.Join(keys, ", "))
		}
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// missingKeys lists the variables reported as unset or empty by the env parser.
func missingKeys(err error) []string {
	var aggregate env.AggregateError
	if !errors.As(err, &aggregate) {
		return nil
	}

	var keys []string
	for _, fieldErr := range aggregate.Errors {
		switch typed := fieldErr.(type) {
		case env.VarIsNotSetError:
			keys = append(keys, typed.Key)
		case env.EmptyVarError:
			keys = append(keys, typed.Key)
		}
	}
	return keys
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// RedisEnabled reports whether a Redis URL was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != ""
}
