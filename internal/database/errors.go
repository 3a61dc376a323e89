// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/openvigil/vaxsignal/internal/logging"
)

// ErrStoreUnavailable marks store failures that abort the whole request.
// Callers must never cache or partially serve a response after seeing it.
var ErrStoreUnavailable = errors.New("relation store unavailable")

// newStoreBreaker builds the circuit breaker guarding all store queries.
// Five consecutive failures open the circuit for 30 seconds; while open,
// queries fail fast with ErrStoreUnavailable instead of stacking up on a
// dead connection.
func newStoreBreaker() *gobreaker.CircuitBreaker[any] {
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:    "duckdb",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Store circuit breaker state change")
		},
	})
}

// classifyStoreError wraps a query failure. Every store error aborts the
// request that triggered it, so they all map onto ErrStoreUnavailable; the
// original error stays in the chain for logging.
func classifyStoreError(operation string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: circuit open: %w", operation, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %v: %w", operation, err, ErrStoreUnavailable)
}
