// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/openvigil/vaxsignal/internal/config"
	"github.com/openvigil/vaxsignal/internal/models"
)

// Parameter parsing is deliberately liberal: an unparseable numeric, date,
// or enum value is treated as "filter absent" rather than rejected. The
// epidemiology UI sends whatever its form state holds; a garbled field
// should widen the query, never fail it. Values that survive parsing are
// normalized (case, clamps) exactly once here, so downstream stages and
// the cache key always see canonical parameters.

// ParseSignalParams compiles the query string into canonical signal
// parameters, falling back to the configured pipeline defaults.
func ParseSignalParams(q url.Values, defaults config.PipelineConfig) models.SignalParams {
	p := models.SignalParams{
		Filter:   parseReportFilter(q),
		Join:     parseJoinFilter(q),
		OnsetDay: parseOnsetDayRange(q),

		MinCount:    intOr(q, "min_count", defaults.MinCount),
		MinVaxTotal: intOr(q, "min_vax_total", defaults.MinVaxTotal),
		MinSymTotal: intOr(q, "min_sym_total", defaults.MinSymTotal),
		SortBy:      parseSortBy(q.Get("sort_by")),
		Limit:       intOr(q, "limit", defaults.Limit),
		CC:          floatOr(q, "cc", defaults.CC),
		CohortCap:   intOr(q, "cohort_cap", defaults.CohortCap),
	}

	if p.MinCount < 1 {
		p.MinCount = 1
	}
	if p.MinVaxTotal < 0 {
		p.MinVaxTotal = 0
	}
	if p.MinSymTotal < 0 {
		p.MinSymTotal = 0
	}
	if p.Limit < 10 {
		p.Limit = 10
	}
	if p.Limit > defaults.MaxLimit {
		p.Limit = defaults.MaxLimit
	}
	if p.CC < 0 {
		p.CC = 0
	}
	if p.CohortCap < 0 {
		p.CohortCap = 0
	}
	return p
}

// ParseOnsetParams compiles the query string for the onset-day histogram
// endpoint. Cohort selection uses the same filter surface as signals.
func ParseOnsetParams(q url.Values, defaults config.PipelineConfig) models.OnsetParams {
	p := models.OnsetParams{
		Filter:      parseReportFilter(q),
		Join:        parseJoinFilter(q),
		OnsetDay:    parseOnsetDayRange(q),
		CohortCap:   intOr(q, "cohort_cap", defaults.CohortCap),
		Buckets:     intOr(q, "buckets", 0),
		ClipMaxDays: intOr(q, "clip_max_days", 0),
	}
	if p.CohortCap < 0 {
		p.CohortCap = 0
	}
	if p.Buckets < 0 || p.Buckets > 100 {
		p.Buckets = 0
	}
	if p.ClipMaxDays < 0 {
		p.ClipMaxDays = 0
	}
	return p
}

// ParseTrendsParams compiles the query string for the monthly onset-trend
// endpoint.
func ParseTrendsParams(q url.Values, defaults config.PipelineConfig) models.TrendsParams {
	p := models.TrendsParams{
		Filter:     parseReportFilter(q),
		Join:       parseJoinFilter(q),
		OnsetDay:   parseOnsetDayRange(q),
		CohortCap:  intOr(q, "cohort_cap", defaults.CohortCap),
		ClipMonths: intOr(q, "clip_months", 0),
	}
	if p.CohortCap < 0 {
		p.CohortCap = 0
	}
	if p.ClipMonths < 0 {
		p.ClipMonths = 0
	}
	return p
}

// ParseOutcomesParams compiles the query string for the outcome tally
// endpoint.
func ParseOutcomesParams(q url.Values, defaults config.PipelineConfig) models.OutcomesParams {
	p := models.OutcomesParams{
		Filter:    parseReportFilter(q),
		Join:      parseJoinFilter(q),
		OnsetDay:  parseOnsetDayRange(q),
		CohortCap: intOr(q, "cohort_cap", defaults.CohortCap),
	}
	if p.CohortCap < 0 {
		p.CohortCap = 0
	}
	return p
}

// ParseGeoParams compiles the query string for the state-breakdown
// endpoint.
func ParseGeoParams(q url.Values, defaults config.PipelineConfig) models.GeoParams {
	p := models.GeoParams{
		Filter:    parseReportFilter(q),
		Join:      parseJoinFilter(q),
		OnsetDay:  parseOnsetDayRange(q),
		CohortCap: intOr(q, "cohort_cap", defaults.CohortCap),
	}
	if p.CohortCap < 0 {
		p.CohortCap = 0
	}
	return p
}

// ParseSearchParams compiles the query string for the report search
// endpoint. The sample limit clamps to [1, MaxLimit].
func ParseSearchParams(q url.Values, defaults config.PipelineConfig) models.SearchParams {
	p := models.SearchParams{
		Filter:    parseReportFilter(q),
		Join:      parseJoinFilter(q),
		OnsetDay:  parseOnsetDayRange(q),
		CohortCap: intOr(q, "cohort_cap", defaults.CohortCap),
		Limit:     intOr(q, "limit", defaults.Limit),
	}
	if p.CohortCap < 0 {
		p.CohortCap = 0
	}
	if p.Limit < 1 {
		p.Limit = 1
	}
	if p.Limit > defaults.MaxLimit {
		p.Limit = defaults.MaxLimit
	}
	return p
}

func parseReportFilter(q url.Values) models.ReportFilter {
	f := models.ReportFilter{
		Year:       intPtr(q.Get("year")),
		AgeMin:     floatPtr(q.Get("age_min")),
		AgeMax:     floatPtr(q.Get("age_max")),
		OnsetStart: datePtr(q.Get("onset_start")),
		OnsetEnd:   datePtr(q.Get("onset_end")),

		SeriousOnly:  boolFlag(q.Get("serious_only")),
		DiedOnly:     boolFlag(q.Get("died_only")),
		HospitalOnly: boolFlag(q.Get("hospital_only")),

		OtherMeds: strings.TrimSpace(q.Get("other_meds")),
		CurIll:    strings.TrimSpace(q.Get("cur_ill")),
		History:   strings.TrimSpace(q.Get("history")),
		PriorVax:  strings.TrimSpace(q.Get("prior_vax")),
		Allergies: strings.TrimSpace(q.Get("allergies")),
	}

	if sex := strings.ToUpper(strings.TrimSpace(q.Get("sex"))); sex == "M" || sex == "F" || sex == "U" {
		f.Sex = sex
	}
	if state := strings.ToUpper(strings.TrimSpace(q.Get("state"))); len(state) == 2 {
		f.State = state
	}
	return f
}

func parseJoinFilter(q url.Values) models.JoinFilter {
	return models.JoinFilter{
		VaxType:     strings.ToUpper(strings.TrimSpace(q.Get("vax_type"))),
		VaxManu:     strings.ToUpper(strings.TrimSpace(q.Get("vax_manu"))),
		SymptomTerm: strings.TrimSpace(q.Get("symptom_term")),
		SymptomText: strings.TrimSpace(q.Get("symptom_text")),
	}
}

func parseOnsetDayRange(q url.Values) models.OnsetDayRange {
	return models.OnsetDayRange{
		Min: intPtr(q.Get("onset_day_min")),
		Max: intPtr(q.Get("onset_day_max")),
	}
}

func parseSortBy(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case models.SortByROR:
		return models.SortByROR
	case models.SortByJointCount:
		return models.SortByJointCount
	default:
		return models.SortByPRR
	}
}

func intPtr(raw string) *int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if raw == "" || err != nil {
		return nil
	}
	return &v
}

func floatPtr(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if raw == "" || err != nil {
		return nil
	}
	return &v
}

func datePtr(raw string) *time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if raw == "" || err != nil {
		return nil
	}
	return &t
}

func boolFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func intOr(q url.Values, name string, def int) int {
	if p := intPtr(q.Get(name)); p != nil {
		return *p
	}
	return def
}

func floatOr(q url.Values, name string, def float64) float64 {
	if p := floatPtr(q.Get(name)); p != nil {
		return *p
	}
	return def
}
