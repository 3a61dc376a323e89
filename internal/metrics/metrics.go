// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package metrics provides Prometheus instrumentation for the signal
// pipeline, the relation store, the response cache, and the API surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics.

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Pipeline metrics.

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signal_pipeline_stage_duration_seconds",
			Help:    "Duration of signal pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"}, // resolve_cohort, tabulate, rank
	)

	CohortSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_cohort_size",
			Help:    "Resolved cohort sizes",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	PairsTabulated = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signal_pairs_tabulated",
			Help:    "Number of (vaccine, symptom) pairs tabulated per request",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// Cache metrics.

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "response_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_evictions_total",
			Help: "Total number of response cache evictions",
		},
		[]string{"reason"}, // expired, overflow, manual
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "response_cache_entries",
			Help: "Current number of response cache entries",
		},
	)

	// API metrics.

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"path", "method", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

// ObserveQuery records one store query with its duration and outcome.
func ObserveQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// ObserveStage records one pipeline stage duration.
func ObserveStage(stage string, start time.Time) {
	PipelineStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// ObserveRequest records one API request.
func ObserveRequest(path, method string, status int, start time.Time) {
	APIRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
}
