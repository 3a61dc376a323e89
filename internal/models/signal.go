// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package models

import "time"

// SignalRow is one (vaccine, symptom) pair with its 2x2 contingency cells
// and computed disproportionality metrics.
//
// The cells satisfy a+b+c+d == N for the cohort the row was computed in,
// and a <= min(VaxTotal, SymTotal). PRR/ROR and their confidence intervals
// are nil when the guards in the metric engine leave them undefined
// (degenerate cells); a nil metric for one pair never affects other pairs.
type SignalRow struct {
	VaxType string `json:"vax_type"`
	VaxManu string `json:"vax_manu"`
	Term    string `json:"pt"`

	A int64 `json:"a"`
	B int64 `json:"b"`
	C int64 `json:"c"`
	D int64 `json:"d"`

	VaxTotal int64 `json:"vax_total"`
	SymTotal int64 `json:"sym_total"`

	// CCApplied records whether the continuity correction was added to the
	// cells before computing the metrics below.
	CCApplied bool `json:"cc_applied"`

	PRR   *float64    `json:"prr"`
	PRRCI *[2]float64 `json:"prr_ci"`
	ROR   *float64    `json:"ror"`
	RORCI *[2]float64 `json:"ror_ci"`
}

// SignalResponse is the complete payload of one signal-detection request.
// It is the unit stored in the response cache, so it must be immutable once
// built.
type SignalResponse struct {
	TimeUTC time.Time    `json:"time_utc"`
	N       int64        `json:"n"` // cohort size
	Params  SignalParams `json:"params"`
	Results []SignalRow  `json:"results"`
	Message string       `json:"message,omitempty"`
}

// OnsetParams selects the cohort and shapes the histogram for the
// onset-day endpoint. Like SignalParams it is the cache-key unit.
type OnsetParams struct {
	Filter   ReportFilter  `json:"filter"`
	Join     JoinFilter    `json:"join"`
	OnsetDay OnsetDayRange `json:"onset_day"`

	CohortCap int `json:"cohort_cap"`

	// Buckets is the number of equal-width histogram buckets.
	Buckets int `json:"buckets"`
	// ClipMaxDays bounds the histogram range: observations outside
	// [0, ClipMaxDays] still count toward Obs and the stats but are left
	// out of the buckets.
	ClipMaxDays int `json:"clip_max_days"`
}

// OnsetBucket is one histogram bucket of onset-day values.
type OnsetBucket struct {
	Lo int64 `json:"lo"`
	Hi int64 `json:"hi"`
	N  int64 `json:"n"`
}

// OnsetStats summarizes the observed onset-day distribution. Fields are
// nil when no observations carried usable dates.
type OnsetStats struct {
	Min *int64   `json:"min"`
	Max *int64   `json:"max"`
	Avg *float64 `json:"avg"`
}

// OnsetResponse is the payload of the onset-day histogram endpoint.
// NBase is the resolved cohort size; Obs counts cohort members with both
// dates present and parseable.
type OnsetResponse struct {
	TimeUTC time.Time     `json:"time_utc"`
	NBase   int64         `json:"n_base"`
	Obs     int64         `json:"obs"`
	Stats   OnsetStats    `json:"stats"`
	Buckets []OnsetBucket `json:"buckets"`
}

// FilterOptions lists the distinct values available for UI filter
// dropdowns.
type FilterOptions struct {
	VaxTypes      []string `json:"vax_types"`
	Manufacturers []string `json:"manufacturers"`
	States        []string `json:"states"`
	Years         []int    `json:"years"`
}
