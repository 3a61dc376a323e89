// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"

	"github.com/openvigil/vaxsignal/internal/models"
)

// VaccineMarginals counts, for each (vax_type, vax_manu), the distinct
// cohort reports that mention it. A report with two administrations of the
// same vaccine contributes once.
func (db *DB) VaccineMarginals(ctx context.Context, cohort []int64) (map[models.VaccineKey]int64, error) {
	if len(cohort) == 0 {
		return map[models.VaccineKey]int64{}, nil
	}

	v, err := db.execute("vaccine_marginals", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT v.vax_type, v.vax_manu, COUNT(DISTINCT v.report_id)
			 FROM vaccines v
			 WHERE list_contains(?, v.report_id)
			 GROUP BY v.vax_type, v.vax_manu`,
			cohort)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		totals := make(map[models.VaccineKey]int64)
		for rows.Next() {
			var key models.VaccineKey
			var n int64
			if err := rows.Scan(&key.VaxType, &key.VaxManu, &n); err != nil {
				return nil, err
			}
			totals[key] = n
		}
		return totals, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.(map[models.VaccineKey]int64), nil
}

// SymptomMarginals counts term occurrences across the cohort's symptom
// rows. The five term slots are exploded with unnest; empty slots are
// dropped. A term repeated within a report counts once per occurrence
// here, unlike the joint counts, which count distinct reports so that a
// pair's joint count can never exceed its vaccine marginal.
func (db *DB) SymptomMarginals(ctx context.Context, cohort []int64) (map[string]int64, error) {
	if len(cohort) == 0 {
		return map[string]int64{}, nil
	}

	v, err := db.execute("symptom_marginals", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT t.term, COUNT(*)
			 FROM (
			   SELECT unnest([s.symptom1, s.symptom2, s.symptom3, s.symptom4, s.symptom5]) AS term
			   FROM symptoms s
			   WHERE list_contains(?, s.report_id)
			 ) t
			 WHERE t.term <> ''
			 GROUP BY t.term`,
			cohort)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		totals := make(map[string]int64)
		for rows.Next() {
			var term string
			var n int64
			if err := rows.Scan(&term, &n); err != nil {
				return nil, err
			}
			totals[term] = n
		}
		return totals, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]int64), nil
}
