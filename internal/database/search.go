// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
	"database/sql"

	"github.com/openvigil/vaxsignal/internal/models"
)

// SampleReports returns up to limit cohort reports in (recv_year,
// report_id) order, so repeated identical requests sample the same rows.
// Free-text history fields are left out of the sample.
func (db *DB) SampleReports(ctx context.Context, cohort []int64, limit int) ([]models.Report, error) {
	if len(cohort) == 0 || limit <= 0 {
		return []models.Report{}, nil
	}

	v, err := db.execute("sample_reports", func() (any, error) {
		rows, err := db.conn.QueryContext(ctx,
			`SELECT r.report_id, r.recv_year, r.sex, r.state, r.age_yrs,
			        r.died, r.hospital, r.l_threat, r.disable, r.birth_defect, r.recovered,
			        r.vax_date, r.onset_date
			 FROM reports r
			 WHERE list_contains(?, r.report_id)
			 ORDER BY r.recv_year, r.report_id
			 LIMIT ?`,
			cohort, limit)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")

		results := make([]models.Report, 0, limit)
		for rows.Next() {
			var r models.Report
			var age sql.NullFloat64
			var vaxDate, onsetDate sql.NullTime
			if err := rows.Scan(
				&r.ReportID, &r.RecvYear, &r.Sex, &r.State, &age,
				&r.Died, &r.Hospital, &r.LifeThreat, &r.Disabled, &r.BirthDefect, &r.Recovered,
				&vaxDate, &onsetDate,
			); err != nil {
				return nil, err
			}
			if age.Valid {
				r.AgeYears = &age.Float64
			}
			if vaxDate.Valid {
				r.VaxDate = &vaxDate.Time
			}
			if onsetDate.Valid {
				r.OnsetDate = &onsetDate.Time
			}
			results = append(results, r)
		}
		return results, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Report), nil
}
