// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-companion-auth.
//
// go-companion-auth is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the server configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-companion-auth/pkg/passkey"
	"github.com/jeremyhahn/go-companion-auth/pkg/ratelimit"
	"github.com/jeremyhahn/go-companion-auth/pkg/token"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	WebAuthn  passkey.Config   `yaml:"webauthn"`
	Tokens    TokensConfig     `yaml:"tokens"`
	RateLimit ratelimit.Config `yaml:"ratelimit"`
	Sweeper   SweeperConfig    `yaml:"sweeper"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TokensConfig contains token issuance settings. The signing secrets are
// only accepted from the environment so they never land in a config file.
type TokensConfig struct {
	AccessSecret  string        `yaml:"-"`
	RefreshSecret string        `yaml:"-"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	Issuer        string        `yaml:"issuer"`
}

// ToTokenConfig converts the settings to the token package's configuration.
func (t *TokensConfig) ToTokenConfig() *token.Config {
	return &token.Config{
		AccessSecret:  []byte(t.AccessSecret),
		RefreshSecret: []byte(t.RefreshSecret),
		AccessTTL:     t.AccessTTL,
		RefreshTTL:    t.RefreshTTL,
		Issuer:        t.Issuer,
	}
}

// SweeperConfig controls the expired refresh token sweeper
type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by admin/user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("COMPANION_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("COMPANION_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			log.Printf("Warning: invalid COMPANION_PORT value %q, using default %d: %v",
				portStr, cfg.Server.Port, err)
		} else if port < 1 || port > 65535 {
			log.Printf("Warning: invalid COMPANION_PORT value %q (out of range 1-65535), using default %d",
				portStr, cfg.Server.Port)
		} else {
			cfg.Server.Port = port
		}
	}

	// Logging
	if level := os.Getenv("COMPANION_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("COMPANION_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// WebAuthn relying party
	if rpID := os.Getenv("COMPANION_RP_ID"); rpID != "" {
		cfg.WebAuthn.RPID = rpID
	}
	if origin := os.Getenv("COMPANION_EXPECTED_ORIGIN"); origin != "" {
		cfg.WebAuthn.RPOrigins = []string{origin}
	}

	// Token secrets come only from the environment
	if secret := os.Getenv("COMPANION_JWT_SECRET"); secret != "" {
		cfg.Tokens.AccessSecret = secret
	}
	if secret := os.Getenv("COMPANION_JWT_REFRESH_SECRET"); secret != "" {
		cfg.Tokens.RefreshSecret = secret
	}
}

// SetDefaults sets default values for unset configuration fields.
func (c *Config) SetDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.WebAuthn.RPDisplayName == "" {
		c.WebAuthn.RPDisplayName = "Learning Companion"
	}
	if c.Sweeper.Interval == 0 {
		c.Sweeper.Interval = time.Hour
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if err := c.WebAuthn.Validate(); err != nil {
		return fmt.Errorf("webauthn: %w", err)
	}

	if c.Tokens.AccessSecret == "" {
		return fmt.Errorf("COMPANION_JWT_SECRET is required")
	}
	if c.Tokens.RefreshSecret == "" {
		return fmt.Errorf("COMPANION_JWT_REFRESH_SECRET is required")
	}
	if c.Tokens.AccessSecret == c.Tokens.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}

	return nil
}
