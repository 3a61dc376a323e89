// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package api

import (
	"net/url"
	"testing"

	"github.com/openvigil/vaxsignal/internal/config"
	"github.com/openvigil/vaxsignal/internal/models"
)

func testDefaults() config.PipelineConfig {
	return config.PipelineConfig{
		MinCount:    5,
		MinVaxTotal: 20,
		MinSymTotal: 20,
		Limit:       50,
		MaxLimit:    200,
		CC:          0.5,
		CohortCap:   0,
	}
}

func TestParseSignalParamsDefaults(t *testing.T) {
	p := ParseSignalParams(url.Values{}, testDefaults())

	if p.MinCount != 5 || p.MinVaxTotal != 20 || p.MinSymTotal != 20 {
		t.Errorf("thresholds = %d/%d/%d, want 5/20/20", p.MinCount, p.MinVaxTotal, p.MinSymTotal)
	}
	if p.SortBy != models.SortByPRR {
		t.Errorf("SortBy = %q, want prr", p.SortBy)
	}
	if p.Limit != 50 {
		t.Errorf("Limit = %d, want 50", p.Limit)
	}
	if p.CC != 0.5 {
		t.Errorf("CC = %v, want 0.5", p.CC)
	}
}

func TestParseSignalParamsLiberalParsing(t *testing.T) {
	q := url.Values{
		"year":      {"not-a-year"},
		"age_min":   {"abc"},
		"onset_start": {"13/01/2024"}, // wrong format
		"min_count": {"banana"},
		"cc":        {"x"},
	}
	p := ParseSignalParams(q, testDefaults())

	if p.Filter.Year != nil {
		t.Errorf("Year = %v, want nil for unparseable value", *p.Filter.Year)
	}
	if p.Filter.AgeMin != nil {
		t.Error("AgeMin set from unparseable value")
	}
	if p.Filter.OnsetStart != nil {
		t.Error("OnsetStart set from unparseable date")
	}
	if p.MinCount != 5 {
		t.Errorf("MinCount = %d, want default 5 for unparseable value", p.MinCount)
	}
	if p.CC != 0.5 {
		t.Errorf("CC = %v, want default 0.5", p.CC)
	}
}

func TestParseSignalParamsNormalization(t *testing.T) {
	q := url.Values{
		"sex":      {" f "},
		"state":    {"ca"},
		"vax_type": {"covid19"},
		"sort_by":  {"ROR"},
	}
	p := ParseSignalParams(q, testDefaults())

	if p.Filter.Sex != "F" {
		t.Errorf("Sex = %q, want F", p.Filter.Sex)
	}
	if p.Filter.State != "CA" {
		t.Errorf("State = %q, want CA", p.Filter.State)
	}
	if p.Join.VaxType != "COVID19" {
		t.Errorf("VaxType = %q, want COVID19", p.Join.VaxType)
	}
	if p.SortBy != models.SortByROR {
		t.Errorf("SortBy = %q, want ror", p.SortBy)
	}
}

func TestParseSignalParamsRejectsInvalidEnums(t *testing.T) {
	q := url.Values{
		"sex":     {"X"},
		"state":   {"CAL"},
		"sort_by": {"weird"},
	}
	p := ParseSignalParams(q, testDefaults())

	if p.Filter.Sex != "" {
		t.Errorf("Sex = %q, want empty for invalid value", p.Filter.Sex)
	}
	if p.Filter.State != "" {
		t.Errorf("State = %q, want empty for invalid value", p.Filter.State)
	}
	if p.SortBy != models.SortByPRR {
		t.Errorf("SortBy = %q, want default prr", p.SortBy)
	}
}

func TestParseSignalParamsClamps(t *testing.T) {
	cases := []struct {
		name  string
		query url.Values
		check func(t *testing.T, p models.SignalParams)
	}{
		{
			name:  "limit below floor",
			query: url.Values{"limit": {"3"}},
			check: func(t *testing.T, p models.SignalParams) {
				if p.Limit != 10 {
					t.Errorf("Limit = %d, want 10", p.Limit)
				}
			},
		},
		{
			name:  "limit above max",
			query: url.Values{"limit": {"9999"}},
			check: func(t *testing.T, p models.SignalParams) {
				if p.Limit != 200 {
					t.Errorf("Limit = %d, want 200", p.Limit)
				}
			},
		},
		{
			name:  "min_count floor",
			query: url.Values{"min_count": {"0"}},
			check: func(t *testing.T, p models.SignalParams) {
				if p.MinCount != 1 {
					t.Errorf("MinCount = %d, want 1", p.MinCount)
				}
			},
		},
		{
			name:  "negative cc",
			query: url.Values{"cc": {"-1"}},
			check: func(t *testing.T, p models.SignalParams) {
				if p.CC != 0 {
					t.Errorf("CC = %v, want 0", p.CC)
				}
			},
		},
		{
			name:  "negative cohort cap",
			query: url.Values{"cohort_cap": {"-5"}},
			check: func(t *testing.T, p models.SignalParams) {
				if p.CohortCap != 0 {
					t.Errorf("CohortCap = %d, want 0", p.CohortCap)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, ParseSignalParams(tc.query, testDefaults()))
		})
	}
}

func TestParseSignalParamsBoolFlags(t *testing.T) {
	q := url.Values{
		"serious_only":  {"true"},
		"died_only":     {"1"},
		"hospital_only": {"nope"},
	}
	p := ParseSignalParams(q, testDefaults())

	if !p.Filter.SeriousOnly || !p.Filter.DiedOnly {
		t.Error("truthy flags not parsed")
	}
	if p.Filter.HospitalOnly {
		t.Error("non-truthy value parsed as true")
	}
}

func TestParseOnsetParams(t *testing.T) {
	q := url.Values{
		"vax_type":      {"HPV9"},
		"onset_day_min": {"0"},
		"onset_day_max": {"14"},
		"buckets":       {"6"},
		"clip_max_days": {"30"},
	}
	p := ParseOnsetParams(q, testDefaults())

	if p.Join.VaxType != "HPV9" {
		t.Errorf("VaxType = %q, want HPV9", p.Join.VaxType)
	}
	if p.OnsetDay.Min == nil || *p.OnsetDay.Min != 0 {
		t.Errorf("OnsetDay.Min = %v, want 0", p.OnsetDay.Min)
	}
	if p.OnsetDay.Max == nil || *p.OnsetDay.Max != 14 {
		t.Errorf("OnsetDay.Max = %v, want 14", p.OnsetDay.Max)
	}
	if p.Buckets != 6 || p.ClipMaxDays != 30 {
		t.Errorf("histogram shape = %d/%d, want 6/30", p.Buckets, p.ClipMaxDays)
	}
}

func TestParseOnsetParamsRejectsAbsurdBuckets(t *testing.T) {
	p := ParseOnsetParams(url.Values{"buckets": {"5000"}}, testDefaults())
	if p.Buckets != 0 {
		t.Errorf("Buckets = %d, want 0 (fall back to default)", p.Buckets)
	}
}

func TestParseTrendsParams(t *testing.T) {
	p := ParseTrendsParams(url.Values{"clip_months": {"12"}, "vax_type": {"flu4"}}, testDefaults())
	if p.ClipMonths != 12 {
		t.Errorf("ClipMonths = %d, want 12", p.ClipMonths)
	}
	if p.Join.VaxType != "FLU4" {
		t.Errorf("VaxType = %q, want FLU4", p.Join.VaxType)
	}

	if p := ParseTrendsParams(url.Values{"clip_months": {"-3"}}, testDefaults()); p.ClipMonths != 0 {
		t.Errorf("negative ClipMonths = %d, want 0", p.ClipMonths)
	}
}

func TestParseSearchParamsClampsLimit(t *testing.T) {
	if p := ParseSearchParams(url.Values{}, testDefaults()); p.Limit != 50 {
		t.Errorf("default Limit = %d, want 50", p.Limit)
	}
	if p := ParseSearchParams(url.Values{"limit": {"0"}}, testDefaults()); p.Limit != 1 {
		t.Errorf("Limit = %d, want floor 1", p.Limit)
	}
	if p := ParseSearchParams(url.Values{"limit": {"9999"}}, testDefaults()); p.Limit != 200 {
		t.Errorf("Limit = %d, want cap 200", p.Limit)
	}
	if p := ParseSearchParams(url.Values{"limit": {"junk"}}, testDefaults()); p.Limit != 50 {
		t.Errorf("unparseable Limit = %d, want default 50", p.Limit)
	}
}
