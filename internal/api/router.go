// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openvigil/vaxsignal/internal/config"
)

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(h *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		MaxAge:         86400,
	}))

	// Health endpoints skip the rate limiter so monitoring cannot be
	// starved out by API traffic from the same address.
	r.Get("/health/live", h.HealthLive)
	r.Get("/health/ready", h.HealthReady)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		r.Use(Observe)

		r.Get("/health", h.Health)
		r.Get("/signals", h.Signals)
		r.Get("/onset", h.Onset)
		r.Get("/trends", h.Trends)
		r.Get("/outcomes", h.Outcomes)
		r.Get("/geo/states", h.GeoStates)
		r.Get("/search", h.Search)
		r.Get("/filters/options", h.FilterOptions)
		r.Get("/cache/stats", h.CacheStats)
		r.Post("/cache/clear", h.CacheClear)
	})

	return r
}
