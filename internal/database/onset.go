// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
)

// OnsetDays returns the whole-day interval between vaccination and symptom
// onset for every cohort report carrying both dates. Reports with a missing
// date are silently dropped; negative intervals (onset recorded before
// vaccination) are preserved for the histogram to expose.
func (db *DB) OnsetDays(ctx context.Context, cohort []int64) ([]int64, error) {
	if len(cohort) == 0 {
		return []int64{}, nil
	}

	v, err := db.execute("onset_days", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT datediff('day', r.vax_date, r.onset_date)
			 FROM reports r
			 WHERE list_contains(?, r.report_id)
			   AND r.vax_date IS NOT NULL
			   AND r.onset_date IS NOT NULL
			 ORDER BY r.report_id`,
			cohort)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		days := make([]int64, 0, len(cohort))
		for rows.Next() {
			var d int64
			if err := rows.Scan(&d); err != nil {
				return nil, err
			}
			days = append(days, d)
		}
		return days, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.([]int64), nil
}
