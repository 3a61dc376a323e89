// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package models

import "time"

// APIResponse is the standardized response envelope used by all HTTP
// endpoints. Status is "success" or "error"; Error is populated only for
// the latter.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"n": 1204, "results": [...]},
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z", "query_time_ms": 45}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries per-response observability fields. QueryTimeMS is 0 and
// Cached true when the response was served from the cache.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError is a structured error payload.
//
// Common codes: VALIDATION_ERROR, STORE_UNAVAILABLE, INTERNAL_ERROR,
// NOT_FOUND, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
