// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package api

import (
	"context"
	"net/http"
	"time"
)

// healthPingTimeout bounds the readiness store probe.
const healthPingTimeout = 2 * time.Second

// Health handles GET /api/v1/health with an overall status summary.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	status := "healthy"
	storeStatus := "up"
	if err := h.db.Ping(ctx); err != nil {
		status = "degraded"
		storeStatus = "down"
	}

	payload := map[string]interface{}{
		"status":         status,
		"store":          storeStatus,
		"uptime_seconds": int64(time.Since(h.start).Seconds()),
		"cache_entries":  h.cache.Len(),
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// HealthLive handles GET /health/live: the process is up and serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady handles GET /health/ready: ready only when the store
// answers a ping, so load balancers drain instances with a dead DuckDB.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
