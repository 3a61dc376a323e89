// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package models

import "time"

// Report is a single adverse-event report. It is the parent relation:
// vaccine administrations and symptom observations reference it by ReportID.
//
// Outcome flags mirror the upstream surveillance feed, which encodes them as
// "Y" / "" strings; the store normalizes them to booleans at load time.
// VaxDate and OnsetDate are nil when the source row carried an unparseable
// or missing date; such rows are excluded from onset-day computations but
// remain valid members of any cohort.
type Report struct {
	ReportID    int64      `json:"report_id"`
	RecvYear    int        `json:"recv_year"`
	Sex         string     `json:"sex"`   // "M", "F", or "U"
	State       string     `json:"state"` // two-letter code, may be empty
	AgeYears    *float64   `json:"age_yrs,omitempty"`
	Died        bool       `json:"died"`
	Hospital    bool       `json:"hospital"`
	LifeThreat  bool       `json:"l_threat"`
	Disabled    bool       `json:"disable"`
	BirthDefect bool       `json:"birth_defect"`
	Recovered   bool       `json:"recovered"`
	VaxDate     *time.Time `json:"vax_date,omitempty"`
	OnsetDate   *time.Time `json:"onset_date,omitempty"`

	// Free-text medical history fields, searched with case-insensitive
	// substring filters.
	OtherMeds string `json:"other_meds,omitempty"`
	CurIll    string `json:"cur_ill,omitempty"`
	History   string `json:"history,omitempty"`
	PriorVax  string `json:"prior_vax,omitempty"`
	Allergies string `json:"allergies,omitempty"`
}

// VaccineAdministration records one vaccine given on a report.
// A report may carry several administrations (multi-dose visits).
type VaccineAdministration struct {
	ReportID int64  `json:"report_id"`
	VaxType  string `json:"vax_type"`
	VaxManu  string `json:"vax_manu"`
}

// SymptomObservation is one coded-symptom row for a report. The upstream
// feed packs up to five MedDRA preferred terms per row; a report may have
// multiple rows when more than five terms were coded.
type SymptomObservation struct {
	ReportID int64  `json:"report_id"`
	Symptom1 string `json:"symptom1,omitempty"`
	Symptom2 string `json:"symptom2,omitempty"`
	Symptom3 string `json:"symptom3,omitempty"`
	Symptom4 string `json:"symptom4,omitempty"`
	Symptom5 string `json:"symptom5,omitempty"`

	// SymptomText is the free-text narrative accompanying the coded terms.
	SymptomText string `json:"symptom_text,omitempty"`
}

// Terms returns the non-empty symptom terms of the observation in slot order.
func (s SymptomObservation) Terms() []string {
	terms := make([]string, 0, 5)
	for _, t := range []string{s.Symptom1, s.Symptom2, s.Symptom3, s.Symptom4, s.Symptom5} {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// VaccineKey identifies a vaccine for tabulation purposes.
type VaccineKey struct {
	VaxType string `json:"vax_type"`
	VaxManu string `json:"vax_manu"`
}

// PairKey identifies one (vaccine, symptom) contingency cell.
type PairKey struct {
	VaxType string `json:"vax_type"`
	VaxManu string `json:"vax_manu"`
	Term    string `json:"pt"` // MedDRA preferred term
}

// Vaccine returns the vaccine portion of the pair key.
func (p PairKey) Vaccine() VaccineKey {
	return VaccineKey{VaxType: p.VaxType, VaxManu: p.VaxManu}
}
