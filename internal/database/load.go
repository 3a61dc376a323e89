// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
	"fmt"

	"github.com/openvigil/vaxsignal/internal/models"
)

// LoadCorpus bulk-inserts a report batch with its child relations inside a
// single transaction. It is the ingestion entry point for both the demo
// seeder and external loaders; report IDs are caller-assigned and must be
// unique across the corpus.
func (db *DB) LoadCorpus(ctx context.Context, reports []models.Report, vaccines []models.VaccineAdministration, symptoms []models.SymptomObservation) error {
	_, err := db.execute("load_corpus", func() (any, error) {
		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin load transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		reportStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO reports (
				report_id, recv_year, sex, state, age_yrs,
				died, hospital, l_threat, disable, birth_defect, recovered,
				vax_date, onset_date,
				other_meds, cur_ill, history, prior_vax, allergies
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return nil, err
		}
		defer closeQuietly(reportStmt)

		for _, r := range reports {
			sex := r.Sex
			if sex == "" {
				sex = "U"
			}
			if _, err := reportStmt.ExecContext(ctx,
				r.ReportID, r.RecvYear, sex, r.State, r.AgeYears,
				r.Died, r.Hospital, r.LifeThreat, r.Disabled, r.BirthDefect, r.Recovered,
				r.VaxDate, r.OnsetDate,
				r.OtherMeds, r.CurIll, r.History, r.PriorVax, r.Allergies,
			); err != nil {
				return nil, fmt.Errorf("insert report %d: %w", r.ReportID, err)
			}
		}

		vaccineStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO vaccines (report_id, vax_type, vax_manu) VALUES (?, ?, ?)`)
		if err != nil {
			return nil, err
		}
		defer closeQuietly(vaccineStmt)

		for _, v := range vaccines {
			if _, err := vaccineStmt.ExecContext(ctx, v.ReportID, v.VaxType, v.VaxManu); err != nil {
				return nil, fmt.Errorf("insert vaccine for report %d: %w", v.ReportID, err)
			}
		}

		symptomStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO symptoms (report_id, symptom1, symptom2, symptom3, symptom4, symptom5, symptom_text)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return nil, err
		}
		defer closeQuietly(symptomStmt)

		for _, s := range symptoms {
			if _, err := symptomStmt.ExecContext(ctx,
				s.ReportID, s.Symptom1, s.Symptom2, s.Symptom3, s.Symptom4, s.Symptom5, s.SymptomText,
			); err != nil {
				return nil, fmt.Errorf("insert symptoms for report %d: %w", s.ReportID, err)
			}
		}

		return nil, tx.Commit()
	})
	return err
}

// ReportCount returns the number of reports in the corpus.
func (db *DB) ReportCount(ctx context.Context) (int64, error) {
	v, err := db.execute("report_count", func() (any, error) {
		var n int64
		err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&n)
		return n, err
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
