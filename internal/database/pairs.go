// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"

	"github.com/openvigil/vaxsignal/internal/metrics"
	"github.com/openvigil/vaxsignal/internal/models"
)

// PairCounts tabulates the joint count for every (vaccine, term) pair that
// co-occurs on a cohort report.
//
// Each report contributes at most once per pair: the vaccine side is
// deduplicated before the join and the count is over distinct reports, so a
// doubled administration or a repeated term slot cannot push the joint
// count past either marginal.
func (db *DB) PairCounts(ctx context.Context, cohort []int64) (map[models.PairKey]int64, error) {
	if len(cohort) == 0 {
		return map[models.PairKey]int64{}, nil
	}

	v, err := db.execute("pair_counts", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT v.vax_type, v.vax_manu, t.term, COUNT(DISTINCT v.report_id)
			 FROM (
			   SELECT DISTINCT report_id, vax_type, vax_manu
			   FROM vaccines
			   WHERE list_contains(?, report_id)
			 ) v
			 JOIN (
			   SELECT report_id,
			          unnest([symptom1, symptom2, symptom3, symptom4, symptom5]) AS term
			   FROM symptoms
			   WHERE list_contains(?, report_id)
			 ) t ON t.report_id = v.report_id
			 WHERE t.term <> ''
			 GROUP BY v.vax_type, v.vax_manu, t.term`,
			cohort, cohort)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		counts := make(map[models.PairKey]int64)
		for rows.Next() {
			var key models.PairKey
			var n int64
			if err := rows.Scan(&key.VaxType, &key.VaxManu, &key.Term, &n); err != nil {
				return nil, err
			}
			counts[key] = n
		}
		return counts, rows.Err()
	})
	if err != nil {
		return nil, err
	}

	counts := v.(map[models.PairKey]int64)
	metrics.PairsTabulated.Observe(float64(len(counts)))
	return counts, nil
}
