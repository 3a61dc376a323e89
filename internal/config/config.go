// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package config defines the VaxSignal configuration surface and loads it
// with koanf v2 from layered sources: struct defaults, an optional YAML
// file, then environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/openvigil/vaxsignal/internal/validation"
)

// Config is the root configuration object.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	// Path is the database file, or ":memory:" for an in-memory store.
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads caps DuckDB worker threads; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
	// SeedDemoData loads a small synthetic corpus on startup when the
	// report table is empty. Development convenience only.
	SeedDemoData bool `koanf:"seed_demo_data"`
}

// PipelineConfig carries the signal-pipeline defaults applied when a
// request omits the corresponding parameter.
type PipelineConfig struct {
	MinCount    int     `koanf:"min_count" validate:"min=1"`
	MinVaxTotal int     `koanf:"min_vax_total" validate:"min=0"`
	MinSymTotal int     `koanf:"min_sym_total" validate:"min=0"`
	Limit       int     `koanf:"limit" validate:"min=1"`
	MaxLimit    int     `koanf:"max_limit" validate:"min=1"`
	CC          float64 `koanf:"cc" validate:"min=0"`
	// CohortCap bounds resolved cohorts (0 = uncapped). Capping changes N
	// and therefore every downstream ratio; it is a correctness parameter,
	// not only a performance knob.
	CohortCap int `koanf:"cohort_cap" validate:"min=0"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled       bool          `koanf:"enabled"`
	TTL           time.Duration `koanf:"ttl"`
	MaxEntries    int           `koanf:"max_entries" validate:"min=1"`
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8042,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitReqs:   300,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path:         "/data/vaxsignal.duckdb",
			MaxMemory:    "2GB",
			Threads:      0,
			SeedDemoData: false,
		},
		Pipeline: PipelineConfig{
			MinCount:    5,
			MinVaxTotal: 20,
			MinSymTotal: 20,
			Limit:       50,
			MaxLimit:    200,
			CC:          0.5,
			CohortCap:   0,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           45 * time.Second,
			MaxEntries:    2048,
			PruneInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Pipeline.Limit > c.Pipeline.MaxLimit {
		return fmt.Errorf("pipeline.limit (%d) exceeds pipeline.max_limit (%d)", c.Pipeline.Limit, c.Pipeline.MaxLimit)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	return nil
}
