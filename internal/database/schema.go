// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

/*
schema.go - Database Schema Management

Tables:
  - reports:  one row per adverse-event report (demographics, outcome
    flags, vaccination and onset dates, free-text history fields)
  - vaccines: vaccine administrations, many per report
  - symptoms: coded-symptom rows, up to five MedDRA terms per row, many
    per report

All columns are defined in the initial CREATE TABLE statements; the corpus
is reloaded from the surveillance feed rather than migrated in place.

Index strategy: the child relations are always probed by report_id (cohort
scoping) or by their join-filter columns (vax_type, vax_manu, term slots),
so those carry the indexes.
*/
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates tables and indexes.
func (db *DB) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range append(tableCreationQueries(), indexCreationQueries()...) {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS reports (
			report_id BIGINT PRIMARY KEY,
			recv_year INTEGER NOT NULL,
			sex VARCHAR NOT NULL DEFAULT 'U',
			state VARCHAR NOT NULL DEFAULT '',
			age_yrs DOUBLE,

			-- Outcome flags, normalized from the feed's Y/"" encoding.
			died BOOLEAN NOT NULL DEFAULT FALSE,
			hospital BOOLEAN NOT NULL DEFAULT FALSE,
			l_threat BOOLEAN NOT NULL DEFAULT FALSE,
			disable BOOLEAN NOT NULL DEFAULT FALSE,
			birth_defect BOOLEAN NOT NULL DEFAULT FALSE,
			recovered BOOLEAN NOT NULL DEFAULT FALSE,

			-- NULL when the source date was missing or unparseable.
			vax_date DATE,
			onset_date DATE,

			-- Free-text medical history.
			other_meds VARCHAR NOT NULL DEFAULT '',
			cur_ill VARCHAR NOT NULL DEFAULT '',
			history VARCHAR NOT NULL DEFAULT '',
			prior_vax VARCHAR NOT NULL DEFAULT '',
			allergies VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS vaccines (
			report_id BIGINT NOT NULL,
			vax_type VARCHAR NOT NULL,
			vax_manu VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS symptoms (
			report_id BIGINT NOT NULL,
			symptom1 VARCHAR NOT NULL DEFAULT '',
			symptom2 VARCHAR NOT NULL DEFAULT '',
			symptom3 VARCHAR NOT NULL DEFAULT '',
			symptom4 VARCHAR NOT NULL DEFAULT '',
			symptom5 VARCHAR NOT NULL DEFAULT '',
			symptom_text VARCHAR NOT NULL DEFAULT ''
		)`,
	}
}

// indexCreationQueries returns the index creation SQL statements.
func indexCreationQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_reports_year ON reports(recv_year)`,
		`CREATE INDEX IF NOT EXISTS idx_vaccines_report ON vaccines(report_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vaccines_type ON vaccines(vax_type, vax_manu)`,
		`CREATE INDEX IF NOT EXISTS idx_symptoms_report ON symptoms(report_id)`,
	}
}
