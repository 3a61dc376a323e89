// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/metrics"
)

// requestIDHeader is echoed back so clients and logs can correlate.
const requestIDHeader = "X-Request-ID"

// RequestID assigns a UUID to each request lacking one and echoes it in
// the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Observe logs each request and feeds the Prometheus request metrics.
func Observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.ObserveRequest(r.URL.Path, r.Method, rec.status, start)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Str("request_id", w.Header().Get(requestIDHeader)).
			Dur("elapsed", time.Since(start)).
			Msg("Request handled")
	})
}
