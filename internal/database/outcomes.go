// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"

	"github.com/openvigil/vaxsignal/internal/models"
)

// OutcomeTallies counts, per outcome flag, the cohort reports carrying it.
// A report with several flags set contributes to each of them.
func (db *DB) OutcomeTallies(ctx context.Context, cohort []int64) (*models.OutcomeTally, error) {
	if len(cohort) == 0 {
		return &models.OutcomeTally{}, nil
	}

	v, err := db.execute("outcome_tallies", func() (any, error) {
		var t models.OutcomeTally
		err := db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*),
			        count_if(r.died),
			        count_if(r.hospital),
			        count_if(r.l_threat),
			        count_if(r.disable),
			        count_if(r.birth_defect),
			        count_if(r.recovered)
			 FROM reports r
			 WHERE list_contains(?, r.report_id)`,
			cohort).Scan(
			&t.Total, &t.Died, &t.Hospital, &t.LifeThreat,
			&t.Disabled, &t.BirthDefect, &t.Recovered)
		if err != nil {
			return nil, err
		}
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.OutcomeTally), nil
}
