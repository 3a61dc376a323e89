// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package signal

import (
	"sort"

	"github.com/openvigil/vaxsignal/internal/models"
)

// buildRows converts the tabulated counts into signal rows, dropping pairs
// below the reliability thresholds before computing metrics. Threshold
// filtering happens first so the metric engine never runs for rows that
// cannot appear in the response.
func buildRows(n int64, pairs map[models.PairKey]int64, vaxTotals map[models.VaccineKey]int64, symTotals map[string]int64, p models.SignalParams) []models.SignalRow {
	rows := make([]models.SignalRow, 0, len(pairs))
	for key, a := range pairs {
		vaxTotal := vaxTotals[key.Vaccine()]
		symTotal := symTotals[key.Term]

		if a < int64(p.MinCount) || vaxTotal < int64(p.MinVaxTotal) || symTotal < int64(p.MinSymTotal) {
			continue
		}

		m := Compute(n, a, vaxTotal, symTotal, p.CC)
		rows = append(rows, models.SignalRow{
			VaxType:   key.VaxType,
			VaxManu:   key.VaxManu,
			Term:      key.Term,
			A:         m.A,
			B:         m.B,
			C:         m.C,
			D:         m.D,
			VaxTotal:  vaxTotal,
			SymTotal:  symTotal,
			CCApplied: m.CCApplied,
			PRR:       m.PRR,
			PRRCI:     m.PRRCI,
			ROR:       m.ROR,
			RORCI:     m.RORCI,
		})
	}
	return rows
}

// Rank orders rows by the selected key descending and truncates to limit.
//
// Undefined metrics sort as zero so they sink to the bottom rather than
// panicking or floating. Ties break by symptom term ascending, then by
// vaccine type and manufacturer, giving a total order: identical inputs
// always produce an identical ranking, which cache equality depends on.
func Rank(rows []models.SignalRow, sortBy string, limit int) []models.SignalRow {
	key := func(r models.SignalRow) float64 {
		switch sortBy {
		case models.SortByROR:
			return deref(r.ROR)
		case models.SortByJointCount:
			return float64(r.A)
		default:
			return deref(r.PRR)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		ki, kj := key(rows[i]), key(rows[j])
		if ki != kj {
			return ki > kj
		}
		if rows[i].Term != rows[j].Term {
			return rows[i].Term < rows[j].Term
		}
		if rows[i].VaxType != rows[j].VaxType {
			return rows[i].VaxType < rows[j].VaxType
		}
		return rows[i].VaxManu < rows[j].VaxManu
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
