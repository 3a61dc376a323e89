// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/openvigil/vaxsignal/internal/cache"
	"github.com/openvigil/vaxsignal/internal/config"
	"github.com/openvigil/vaxsignal/internal/database"
	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/signal"
)

// Handler carries the dependencies of all HTTP handlers.
type Handler struct {
	svc   *signal.Service
	db    *database.DB
	cache *cache.Cache
	cfg   *config.Config
	start time.Time
}

// NewHandler creates the handler set.
func NewHandler(svc *signal.Service, db *database.DB, responseCache *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		svc:   svc,
		db:    db,
		cache: responseCache,
		cfg:   cfg,
		start: time.Now(),
	}
}

// Signals handles GET /api/v1/signals.
func (h *Handler) Signals(w http.ResponseWriter, r *http.Request) {
	params := ParseSignalParams(r.URL.Query(), h.cfg.Pipeline)

	start := time.Now()
	resp, cached, err := h.svc.Signals(r.Context(), params)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, resp, cached, elapsedUnlessCached(start, cached))
}

// Onset handles GET /api/v1/onset.
func (h *Handler) Onset(w http.ResponseWriter, r *http.Request) {
	params := ParseOnsetParams(r.URL.Query(), h.cfg.Pipeline)

	start := time.Now()
	resp, cached, err := h.svc.Onset(r.Context(), params)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, resp, cached, elapsedUnlessCached(start, cached))
}

// Trends handles GET /api/v1/trends.
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	params := ParseTrendsParams(r.URL.Query(), h.cfg.Pipeline)

	start := time.Now()
	resp, cached, err := h.svc.Trends(r.Context(), params)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, resp, cached, elapsedUnlessCached(start, cached))
}

// Outcomes handles GET /api/v1/outcomes.
func (h *Handler) Outcomes(w http.ResponseWriter, r *http.Request) {
	params := ParseOutcomesParams(r.URL.Query(), h.cfg.Pipeline)

	start := time.Now()
	resp, cached, err := h.svc.Outcomes(r.Context(), params)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, resp, cached, elapsedUnlessCached(start, cached))
}

// GeoStates handles GET /api/v1/geo/states.
func (h *Handler) GeoStates(w http.ResponseWriter, r *http.Request) {
	params := ParseGeoParams(r.URL.Query(), h.cfg.Pipeline)

	start := time.Now()
	resp, cached, err := h.svc.Geo(r.Context(), params)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, resp, cached, elapsedUnlessCached(start, cached))
}

// Search handles GET /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params := ParseSearchParams(r.URL.Query(), h.cfg.Pipeline)

	start := time.Now()
	resp, cached, err := h.svc.Search(r.Context(), params)
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, resp, cached, elapsedUnlessCached(start, cached))
}

// FilterOptions handles GET /api/v1/filters/options.
func (h *Handler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	opts, cached, err := h.svc.Options(r.Context())
	if err != nil {
		h.respondPipelineError(w, r, err)
		return
	}
	respondSuccess(w, opts, cached, elapsedUnlessCached(start, cached))
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.cache.GetStats(), false, 0)
}

// CacheClear handles POST /api/v1/cache/clear. Operational escape hatch
// for forcing recomputation after a corpus reload.
func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	h.cache.Clear()
	logging.Info().Msg("Response cache cleared via API")
	respondSuccess(w, map[string]string{"cleared": "ok"}, false, 0)
}

func (h *Handler) respondPipelineError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrStoreUnavailable) {
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("Store unavailable")
		respondError(w, http.StatusServiceUnavailable, ErrCodeStoreUnavailable,
			"the report store is unavailable, try again shortly")
		return
	}
	logging.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	respondError(w, http.StatusInternalServerError, ErrCodeInternal, "internal error")
}

// elapsedUnlessCached reports the compute time, or zero for cache hits so
// clients can distinguish served-from-cache responses.
func elapsedUnlessCached(start time.Time, cached bool) time.Duration {
	if cached {
		return 0
	}
	return time.Since(start)
}
