// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package models

import "time"

// ReportFilter is the typed report-level predicate compiled from request
// parameters. All fields are optional and combine with AND logic; nil or
// zero-valued fields mean "no constraint".
//
// The filter is validated and normalized once at the API boundary
// (api.ParseSignalParams); downstream stages never see raw request values.
// Unparseable values never reach this struct: the parser treats them as
// absent rather than erroring (liberal-parsing policy).
type ReportFilter struct {
	Year       *int       `json:"year,omitempty"`
	Sex        string     `json:"sex,omitempty"`   // "M", "F", "U" after normalization
	State      string     `json:"state,omitempty"` // two-letter code after normalization
	AgeMin     *float64   `json:"age_min,omitempty"`
	AgeMax     *float64   `json:"age_max,omitempty"`
	OnsetStart *time.Time `json:"onset_start,omitempty"`
	OnsetEnd   *time.Time `json:"onset_end,omitempty"`

	// SeriousOnly matches reports with any serious outcome flag set
	// (death, hospitalization, life threat, disability, birth defect).
	SeriousOnly  bool `json:"serious_only,omitempty"`
	DiedOnly     bool `json:"died_only,omitempty"`
	HospitalOnly bool `json:"hospital_only,omitempty"`

	// Case-insensitive substring filters over free-text history fields.
	OtherMeds string `json:"other_meds,omitempty"`
	CurIll    string `json:"cur_ill,omitempty"`
	History   string `json:"history,omitempty"`
	PriorVax  string `json:"prior_vax,omitempty"`
	Allergies string `json:"allergies,omitempty"`
}

// JoinFilter carries the join-side constraints applied against the vaccine
// and symptom child relations rather than the report row itself.
type JoinFilter struct {
	VaxType     string `json:"vax_type,omitempty"`
	VaxManu     string `json:"vax_manu,omitempty"`
	SymptomTerm string `json:"symptom_term,omitempty"`
	SymptomText string `json:"symptom_text,omitempty"` // free-text narrative search
}

// Empty reports whether the join filter constrains nothing.
func (j JoinFilter) Empty() bool {
	return j.VaxType == "" && j.VaxManu == "" && j.SymptomTerm == "" && j.SymptomText == ""
}

// OnsetDayRange restricts cohort membership by whole days between
// vaccination and symptom onset (onset_date - vax_date). Either bound may
// be nil. Reports with missing or unparseable dates never match a
// non-empty range.
type OnsetDayRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

// Empty reports whether the range constrains nothing.
func (r OnsetDayRange) Empty() bool {
	return r.Min == nil && r.Max == nil
}

// Sort keys accepted by SignalParams.SortBy.
const (
	SortByPRR        = "prr"
	SortByROR        = "ror"
	SortByJointCount = "a"
)

// SignalParams is the full canonical parameter set of one signal-detection
// request. It is the unit the cache key is derived from: two requests with
// logically identical parameters hash identically regardless of the order
// the query string supplied them in.
type SignalParams struct {
	Filter   ReportFilter  `json:"filter"`
	Join     JoinFilter    `json:"join"`
	OnsetDay OnsetDayRange `json:"onset_day"`

	// Thresholds against statistically unreliable pairs.
	MinCount    int `json:"min_count"`     // minimum joint count a
	MinVaxTotal int `json:"min_vax_total"` // minimum vaccine marginal
	MinSymTotal int `json:"min_sym_total"` // minimum symptom marginal

	SortBy string  `json:"sort_by"` // prr | ror | a
	Limit  int     `json:"limit"`
	CC     float64 `json:"cc"` // continuity-correction constant

	// CohortCap bounds the resolved cohort size (0 = uncapped). The cap is
	// correctness-relevant: it changes N and every downstream ratio.
	CohortCap int `json:"cohort_cap"`
}
