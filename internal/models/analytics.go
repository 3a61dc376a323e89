// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package models

import "time"

// TrendsParams selects the cohort for the monthly onset-trend series.
// Like SignalParams it is the cache-key unit.
type TrendsParams struct {
	Filter   ReportFilter  `json:"filter"`
	Join     JoinFilter    `json:"join"`
	OnsetDay OnsetDayRange `json:"onset_day"`

	CohortCap int `json:"cohort_cap"`

	// ClipMonths keeps only the most recent months of the series when
	// positive; 0 returns the whole series.
	ClipMonths int `json:"clip_months"`
}

// TrendPoint is one month of the onset-trend series.
type TrendPoint struct {
	Month string `json:"month"` // "2024-01"
	N     int64  `json:"n"`
}

// TrendsResponse is the payload of the monthly onset-trend endpoint.
type TrendsResponse struct {
	TimeUTC time.Time    `json:"time_utc"`
	NBase   int64        `json:"n_base"`
	Points  int          `json:"points"`
	Series  []TrendPoint `json:"series"`
}

// OutcomesParams selects the cohort for the outcome-flag tally endpoint.
type OutcomesParams struct {
	Filter   ReportFilter  `json:"filter"`
	Join     JoinFilter    `json:"join"`
	OnsetDay OnsetDayRange `json:"onset_day"`

	CohortCap int `json:"cohort_cap"`
}

// OutcomeTally holds the per-flag report counts for one cohort. Flags are
// not mutually exclusive, so the per-flag counts may sum past Total.
type OutcomeTally struct {
	Total       int64
	Died        int64
	Hospital    int64
	LifeThreat  int64
	Disabled    int64
	BirthDefect int64
	Recovered   int64
}

// OutcomeCount is one labeled outcome tally in the response.
type OutcomeCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// OutcomesResponse is the payload of the outcome tally endpoint. Outcomes
// always lists every flag, zero-counted when absent, in a fixed order.
type OutcomesResponse struct {
	TimeUTC  time.Time      `json:"time_utc"`
	NBase    int64          `json:"n_base"`
	Total    int64          `json:"total"`
	Outcomes []OutcomeCount `json:"outcomes"`
}

// GeoParams selects the cohort for the state-breakdown endpoint.
type GeoParams struct {
	Filter   ReportFilter  `json:"filter"`
	Join     JoinFilter    `json:"join"`
	OnsetDay OnsetDayRange `json:"onset_day"`

	CohortCap int `json:"cohort_cap"`
}

// StateCount is one state's slice of the cohort. Serious means any of the
// died/hospital/life-threat/disabled/birth-defect flags is set. AvgAge is 0
// when no report in the state carried an age.
type StateCount struct {
	State        string  `json:"state"`
	Count        int64   `json:"count"`
	SeriousCount int64   `json:"serious_count"`
	SeriousRatio float64 `json:"serious_ratio"`
	AvgAge       float64 `json:"avg_age"`
}

// GeoResponse is the payload of the state-breakdown endpoint. Total sums
// the per-state counts and can fall short of NBase: reports without a
// state are left out of the breakdown.
type GeoResponse struct {
	TimeUTC time.Time    `json:"time_utc"`
	NBase   int64        `json:"n_base"`
	Total   int64        `json:"total"`
	States  []StateCount `json:"states"`
}

// SearchParams selects the cohort and bounds the sample for the
// report-level search endpoint.
type SearchParams struct {
	Filter   ReportFilter  `json:"filter"`
	Join     JoinFilter    `json:"join"`
	OnsetDay OnsetDayRange `json:"onset_day"`

	CohortCap int `json:"cohort_cap"`

	// Limit bounds the returned sample, not the cohort count.
	Limit int `json:"limit"`
}

// SearchResponse is the payload of the report search endpoint. Count is
// the full resolved cohort size; Results is a deterministic sample of at
// most Limit reports from it.
type SearchResponse struct {
	TimeUTC time.Time `json:"time_utc"`
	Count   int64     `json:"count"`
	Limit   int       `json:"limit"`
	Results []Report  `json:"results"`
}
