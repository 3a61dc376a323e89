// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration invalid: %v", err)
	}
	if cfg.Pipeline.MinCount != 5 {
		t.Errorf("default MinCount = %d, want 5", cfg.Pipeline.MinCount)
	}
	if cfg.Cache.TTL != 45*time.Second {
		t.Errorf("default cache TTL = %s, want 45s", cfg.Cache.TTL)
	}
	if cfg.Cache.MaxEntries != 2048 {
		t.Errorf("default MaxEntries = %d, want 2048", cfg.Cache.MaxEntries)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"limit above max", func(c *Config) { c.Pipeline.Limit = 500 }},
		{"zero cache ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"zero min count", func(c *Config) { c.Pipeline.MinCount = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != defaultConfig().Server.Port {
		t.Errorf("Port = %d, want default %d", cfg.Server.Port, defaultConfig().Server.Port)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VAXSIGNAL_SERVER_PORT", "9191")
	t.Setenv("VAXSIGNAL_PIPELINE_MIN_COUNT", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("Port = %d, want 9191 from environment", cfg.Server.Port)
	}
	if cfg.Pipeline.MinCount != 3 {
		t.Errorf("MinCount = %d, want 3 from environment", cfg.Pipeline.MinCount)
	}
}

func TestLoadFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: 8181\ncache:\n  max_entries: 128\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want 8181 from file", cfg.Server.Port)
	}
	if cfg.Cache.MaxEntries != 128 {
		t.Errorf("MaxEntries = %d, want 128 from file", cfg.Cache.MaxEntries)
	}
	// Untouched keys keep their defaults.
	if cfg.Pipeline.MinCount != 5 {
		t.Errorf("MinCount = %d, want default 5", cfg.Pipeline.MinCount)
	}
}

func TestEnvTransform(t *testing.T) {
	cases := map[string]string{
		"VAXSIGNAL_SERVER_PORT":       "server.port",
		"VAXSIGNAL_CACHE_MAX_ENTRIES": "cache.max_entries",
		"VAXSIGNAL_LOGGING_LEVEL":     "logging.level",
		"VAXSIGNAL_UNKNOWN":           "unknown",
	}
	for in, want := range cases {
		if got := envTransform(in); got != want {
			t.Errorf("envTransform(%s) = %s, want %s", in, got, want)
		}
	}
}
