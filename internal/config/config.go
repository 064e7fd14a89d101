// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

// Package config defines the layered application configuration:
// built-in defaults, an optional YAML file, and environment variables,
// loaded through Koanf v2 with precedence ENV > file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Telex    TelexConfig    `koanf:"telex"`
	Discord  DiscordConfig  `koanf:"discord"`
	NATS     NATSConfig     `koanf:"nats"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// AuthConfig holds token issuance settings. Secret signs the connection
// capability tokens and must be set in production.
type AuthConfig struct {
	Secret  string        `koanf:"secret"`
	Expires time.Duration `koanf:"expires"`
}

// TelexConfig holds connection registry and sweeper settings.
type TelexConfig struct {
	// TimeoutMin is the staleness cutoff in minutes. A connection whose
	// lastContact is older than this is deactivated by the sweeper.
	TimeoutMin int `koanf:"timeout_min"`

	// DisableCleanup turns the staleness sweeper into a no-op.
	DisableCleanup bool `koanf:"disable_cleanup"`

	// SweepInterval is the tick period of the sweeper.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// CacheTTL is the read-side response memoization window.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// ExtraProfanity adds words to the default profanity list.
	ExtraProfanity []string `koanf:"extra_profanity"`
}

// DiscordConfig holds the optional Discord notification sink settings.
type DiscordConfig struct {
	Enabled    bool          `koanf:"enabled"`
	WebhookURL string        `koanf:"webhook_url"`
	RateLimit  time.Duration `koanf:"rate_limit"`
	Timeout    time.Duration `koanf:"timeout"`
}

// NATSConfig holds the optional NATS notification sink settings.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// SecurityConfig holds request rate limiting settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    3000,
			Host:    "0.0.0.0",
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/fbw-api.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Auth: AuthConfig{
			Secret:  "",
			Expires: 12 * time.Hour,
		},
		Telex: TelexConfig{
			TimeoutMin:     6,
			DisableCleanup: false,
			SweepInterval:  5 * time.Second,
			CacheTTL:       15 * time.Second,
			ExtraProfanity: []string{},
		},
		Discord: DiscordConfig{
			Enabled:    false,
			WebhookURL: "",
			RateLimit:  1 * time.Second,
			Timeout:    10 * time.Second,
		},
		NATS: NATSConfig{
			Enabled: false,
			URL:     "nats://127.0.0.1:4222",
			Subject: "telex.messages",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that would prevent the
// service from operating correctly.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth secret is required (set AUTH_SECRET)")
	}
	if len(c.Auth.Secret) < 16 {
		return fmt.Errorf("auth secret must be at least 16 characters")
	}
	if c.Auth.Expires <= 0 {
		return fmt.Errorf("auth expires must be positive, got %v", c.Auth.Expires)
	}
	if c.Telex.TimeoutMin < 1 {
		return fmt.Errorf("telex timeout must be at least 1 minute, got %d", c.Telex.TimeoutMin)
	}
	if c.Telex.SweepInterval < time.Second {
		return fmt.Errorf("telex sweep interval must be at least 1s, got %v", c.Telex.SweepInterval)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Discord.Enabled && c.Discord.WebhookURL == "" {
		return fmt.Errorf("discord sink enabled but webhook URL is empty")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("nats sink enabled but URL is empty")
	}
	return nil
}
