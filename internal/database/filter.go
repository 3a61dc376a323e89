// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"fmt"
	"strings"

	"github.com/openvigil/vaxsignal/internal/models"
)

// buildReportConditions translates the typed report-level predicate into
// parameterized WHERE clauses against the reports relation.
//
// The returned clauses combine with AND; an empty filter yields no clauses.
// alias is the SQL alias of the reports relation (usually "r").
//
// Free-text history fields use case-insensitive regular expressions; the
// API layer passes plain substrings through unescaped, matching the
// upstream system's contract.
func buildReportConditions(f models.ReportFilter, alias string) ([]string, []interface{}) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var clauses []string
	var args []interface{}

	if f.Year != nil {
		clauses = append(clauses, col("recv_year")+" = ?")
		args = append(args, *f.Year)
	}
	if f.Sex != "" {
		clauses = append(clauses, col("sex")+" = ?")
		args = append(args, f.Sex)
	}
	if f.State != "" {
		clauses = append(clauses, col("state")+" = ?")
		args = append(args, f.State)
	}
	if f.AgeMin != nil {
		clauses = append(clauses, col("age_yrs")+" >= ?")
		args = append(args, *f.AgeMin)
	}
	if f.AgeMax != nil {
		clauses = append(clauses, col("age_yrs")+" <= ?")
		args = append(args, *f.AgeMax)
	}
	if f.OnsetStart != nil {
		clauses = append(clauses, col("onset_date")+" >= ?")
		args = append(args, *f.OnsetStart)
	}
	if f.OnsetEnd != nil {
		clauses = append(clauses, col("onset_date")+" <= ?")
		args = append(args, *f.OnsetEnd)
	}

	// serious_only means ANY serious outcome flag is set.
	if f.SeriousOnly {
		clauses = append(clauses, fmt.Sprintf("(%s OR %s OR %s OR %s OR %s)",
			col("died"), col("hospital"), col("l_threat"), col("disable"), col("birth_defect")))
	}
	if f.DiedOnly {
		clauses = append(clauses, col("died"))
	}
	if f.HospitalOnly {
		clauses = append(clauses, col("hospital"))
	}

	for _, tf := range []struct {
		column  string
		pattern string
	}{
		{"other_meds", f.OtherMeds},
		{"cur_ill", f.CurIll},
		{"history", f.History},
		{"prior_vax", f.PriorVax},
		{"allergies", f.Allergies},
	} {
		if tf.pattern != "" {
			clauses = append(clauses, fmt.Sprintf("regexp_matches(%s, ?, 'i')", col(tf.column)))
			args = append(args, tf.pattern)
		}
	}

	return clauses, args
}

// whereClause joins clauses with AND, starting from "1=1" for safe
// concatenation into larger statements.
func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return "1=1"
	}
	return "1=1 AND " + strings.Join(clauses, " AND ")
}

// vaccineConditions builds the vaccines-relation clauses of a join filter.
func vaccineConditions(j models.JoinFilter, alias string) ([]string, []interface{}) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var clauses []string
	var args []interface{}
	if j.VaxType != "" {
		clauses = append(clauses, col("vax_type")+" = ?")
		args = append(args, j.VaxType)
	}
	if j.VaxManu != "" {
		clauses = append(clauses, col("vax_manu")+" = ?")
		args = append(args, j.VaxManu)
	}
	return clauses, args
}

// symptomConditions builds the symptoms-relation clauses of a join filter.
// A coded term must match one of the five slots; free text searches the
// narrative column.
func symptomConditions(j models.JoinFilter, alias string) ([]string, []interface{}) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	var clauses []string
	var args []interface{}
	if j.SymptomTerm != "" {
		clauses = append(clauses, fmt.Sprintf("? IN (%s, %s, %s, %s, %s)",
			col("symptom1"), col("symptom2"), col("symptom3"), col("symptom4"), col("symptom5")))
		args = append(args, j.SymptomTerm)
	}
	if j.SymptomText != "" {
		clauses = append(clauses, fmt.Sprintf("regexp_matches(%s, ?, 'i')", col("symptom_text")))
		args = append(args, j.SymptomText)
	}
	return clauses, args
}
