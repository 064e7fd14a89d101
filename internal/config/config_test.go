// FlyByWire Simulations API
// Copyright 2026 FlyByWire Simulations
// SPDX-License-Identifier: MIT
// https://github.com/flybywiresim/api

package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Telex.TimeoutMin != 6 {
		t.Errorf("expected default timeout of 6 minutes, got %d", cfg.Telex.TimeoutMin)
	}
	if cfg.Telex.SweepInterval != 5*time.Second {
		t.Errorf("expected default sweep interval of 5s, got %v", cfg.Telex.SweepInterval)
	}
	if cfg.Auth.Expires != 12*time.Hour {
		t.Errorf("expected default token expiry of 12h, got %v", cfg.Auth.Expires)
	}
	if cfg.Telex.DisableCleanup {
		t.Error("expected cleanup to be enabled by default")
	}
	if cfg.Discord.Enabled || cfg.NATS.Enabled {
		t.Error("expected notification sinks to be disabled by default")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"
		return cfg
	}

	if err := valid().Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing secret", func(c *Config) { c.Auth.Secret = "" }},
		{"short secret", func(c *Config) { c.Auth.Secret = "short" }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"zero timeout", func(c *Config) { c.Telex.TimeoutMin = 0 }},
		{"sub-second sweep", func(c *Config) { c.Telex.SweepInterval = 100 * time.Millisecond }},
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"discord without webhook", func(c *Config) { c.Discord.Enabled = true }},
		{"nats without url", func(c *Config) { c.NATS.Enabled = true; c.NATS.URL = "" }},
	}

	for _, tt := range tests {
		cfg := valid()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTH_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("TELEX_TIMEOUT_MIN", "10")
	t.Setenv("TELEX_DISABLE_CLEANUP", "true")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DUCKDB_PATH", "/tmp/test.duckdb")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Telex.TimeoutMin != 10 {
		t.Errorf("expected timeout 10, got %d", cfg.Telex.TimeoutMin)
	}
	if !cfg.Telex.DisableCleanup {
		t.Error("expected cleanup to be disabled")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/test.duckdb" {
		t.Errorf("unexpected database path: %s", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestEnvTransformSkipsUnmappedKeys(t *testing.T) {
	t.Parallel()

	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("expected unmapped env var to be skipped, got %q", got)
	}
	if got := envTransformFunc("AUTH_SECRET"); got != "auth.secret" {
		t.Errorf("envTransformFunc(AUTH_SECRET) = %q", got)
	}
	if got := envTransformFunc("TELEX_SWEEP_INTERVAL"); got != "telex.sweep_interval" {
		t.Errorf("envTransformFunc(TELEX_SWEEP_INTERVAL) = %q", got)
	}
}
