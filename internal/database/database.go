// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package database implements the VaxSignal relation store on DuckDB.
//
// It holds three relations (reports, vaccines, symptoms) and provides the
// cohort-resolution, marginal-aggregation, and pair-tabulation queries the
// signal pipeline runs. Every query goes through a circuit breaker so an
// unreachable store surfaces as ErrStoreUnavailable instead of a pile of
// driver errors.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/sony/gobreaker/v2"

	"github.com/openvigil/vaxsignal/internal/config"
	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/metrics"
)

// DB wraps the DuckDB connection and provides the store operations.
type DB struct {
	conn    *sql.DB
	cfg     *config.DatabaseConfig
	breaker *gobreaker.CircuitBreaker[any]
}

// New opens (or creates) the database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		// Ensure the parent directory exists for file-backed databases.
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", cfg.Path, numThreads, maxMemory)
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:    conn,
		cfg:     cfg,
		breaker: newStoreBreaker(),
	}

	if err := db.createSchema(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.SeedDemoData {
		if err := db.SeedDemoCorpus(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Demo corpus seeding failed")
		}
	}

	return db, nil
}

// Conn returns the underlying SQL connection, for tests and tooling.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// execute runs one store operation through the circuit breaker and records
// its metrics. All public query methods funnel through here.
func (db *DB) execute(operation string, fn func() (any, error)) (any, error) {
	start := time.Now()
	v, err := db.breaker.Execute(fn)
	metrics.ObserveQuery(operation, start, err)
	if err != nil {
		return nil, classifyStoreError(operation, err)
	}
	return v, nil
}

// closeQuietly closes a resource ignoring the error; cleanup is best-effort.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}
