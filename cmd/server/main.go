// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Command server runs the VaxSignal HTTP service: a disproportionality
// signal-detection API over a DuckDB corpus of adverse-event reports.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/openvigil/vaxsignal/internal/api"
	"github.com/openvigil/vaxsignal/internal/cache"
	"github.com/openvigil/vaxsignal/internal/config"
	"github.com/openvigil/vaxsignal/internal/database"
	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/signal"
	"github.com/openvigil/vaxsignal/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("db", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting VaxSignal")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Store close failed")
		}
	}()

	responseCache := cache.New(cache.Options{
		DefaultTTL: cfg.Cache.TTL,
		MaxEntries: cfg.Cache.MaxEntries,
		Disabled:   !cfg.Cache.Enabled,
	})

	svc := signal.NewService(db, responseCache, cfg.Cache.TTL)
	handler := api.NewHandler(svc, db, responseCache, cfg)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slogger := slog.New(logging.NewSlogHandler())
	tree := supervisor.NewTree(slogger, supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	if cfg.Cache.Enabled {
		tree.Add(supervisor.NewCacheJanitor(responseCache, cfg.Cache.PruneInterval))
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}
