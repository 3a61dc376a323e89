// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package api provides the HTTP surface of VaxSignal: the chi router, the
// request-parameter compiler, and the JSON handlers over the signal
// pipeline.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/models"
)

// Error codes used in API error payloads.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
)

// respondSuccess writes a success envelope with the given payload.
// queryTime is zero when the response came from the cache.
func respondSuccess(w http.ResponseWriter, data interface{}, cached bool, queryTime time.Duration) {
	writeJSON(w, http.StatusOK, models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: queryTime.Milliseconds(),
			Cached:      cached,
		},
	})
}

// respondError writes an error envelope with the given status and code.
func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already out; all we can do is log.
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}
