// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
	"database/sql"
	"math"

	"github.com/openvigil/vaxsignal/internal/models"
)

// StateBreakdown aggregates the cohort by state: report count, serious
// count (any severe outcome flag set), and average age where recorded.
// Reports without a state are excluded. Ordered by count descending, state
// ascending on ties, so the breakdown is deterministic.
func (db *DB) StateBreakdown(ctx context.Context, cohort []int64) ([]models.StateCount, error) {
	if len(cohort) == 0 {
		return []models.StateCount{}, nil
	}

	v, err := db.execute("state_breakdown", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT r.state,
			        COUNT(*),
			        count_if(r.died OR r.hospital OR r.l_threat OR r.disable OR r.birth_defect),
			        avg(r.age_yrs)
			 FROM reports r
			 WHERE list_contains(?, r.report_id)
			   AND r.state <> ''
			 GROUP BY r.state
			 ORDER BY COUNT(*) DESC, r.state`,
			cohort)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		states := make([]models.StateCount, 0, 52)
		for rows.Next() {
			var s models.StateCount
			var avgAge sql.NullFloat64
			if err := rows.Scan(&s.State, &s.Count, &s.SeriousCount, &avgAge); err != nil {
				return nil, err
			}
			if s.Count > 0 {
				s.SeriousRatio = math.Round(float64(s.SeriousCount)/float64(s.Count)*1000) / 1000
			}
			if avgAge.Valid {
				s.AvgAge = math.Round(avgAge.Float64*10) / 10
			}
			states = append(states, s)
		}
		return states, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.StateCount), nil
}
