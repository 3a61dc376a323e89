// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"

	"github.com/openvigil/vaxsignal/internal/models"
)

// MonthlyOnsetCounts groups the cohort's onset dates by calendar month and
// returns the series in ascending month order. Reports without an onset
// date are skipped.
func (db *DB) MonthlyOnsetCounts(ctx context.Context, cohort []int64) ([]models.TrendPoint, error) {
	if len(cohort) == 0 {
		return []models.TrendPoint{}, nil
	}

	v, err := db.execute("monthly_onset_counts", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT strftime(r.onset_date, '%Y-%m') AS month, COUNT(*)
			 FROM reports r
			 WHERE list_contains(?, r.report_id)
			   AND r.onset_date IS NOT NULL
			 GROUP BY month
			 ORDER BY month`,
			cohort)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		series := make([]models.TrendPoint, 0, 24)
		for rows.Next() {
			var p models.TrendPoint
			if err := rows.Scan(&p.Month, &p.N); err != nil {
				return nil, err
			}
			series = append(series, p)
		}
		return series, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.TrendPoint), nil
}
