// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/openvigil/vaxsignal/internal/metrics"
	"github.com/openvigil/vaxsignal/internal/models"
)

// ResolveCohort computes the ordered set of report IDs matching the
// request's report, join, and onset-day predicates.
//
// Two strategies produce identical membership:
//
//   - Without an onset-day range, the vaccine-side and symptom-side ID sets
//     are resolved independently and intersected in Go. An empty
//     intersection short-circuits before the reports relation is touched.
//   - With an onset-day range the day difference has to be evaluated per
//     report anyway, so a single statement applies every predicate at once.
//
// Either way the result is sorted by report_id ascending before the
// optional cohort cap truncates it, so a capped cohort is a deterministic
// prefix: the same parameters always resolve the same membership.
func (db *DB) ResolveCohort(ctx context.Context, params models.SignalParams) ([]int64, error) {
	v, err := db.execute("resolve_cohort", func() (any, error) {
		if params.OnsetDay.Empty() {
			return db.resolveByIntersection(ctx, params)
		}
		return db.resolveWithOnsetDays(ctx, params)
	})
	if err != nil {
		return nil, err
	}
	ids := v.([]int64)
	metrics.CohortSize.Observe(float64(len(ids)))
	return ids, nil
}

func (db *DB) resolveByIntersection(ctx context.Context, params models.SignalParams) ([]int64, error) {
	var scope []int64
	scoped := false

	if params.Join.VaxType != "" || params.Join.VaxManu != "" {
		ids, err := db.vaccineMatchIDs(ctx, params.Join)
		if err != nil {
			return nil, err
		}
		scope, scoped = ids, true
		if len(scope) == 0 {
			return []int64{}, nil
		}
	}

	if params.Join.SymptomTerm != "" || params.Join.SymptomText != "" {
		ids, err := db.symptomMatchIDs(ctx, params.Join)
		if err != nil {
			return nil, err
		}
		if scoped {
			scope = intersectSorted(scope, ids)
		} else {
			scope, scoped = ids, true
		}
		if len(scope) == 0 {
			return []int64{}, nil
		}
	}

	clauses, args := buildReportConditions(params.Filter, "r")
	if scoped {
		clauses = append(clauses, "list_contains(?, r.report_id)")
		args = append(args, scope)
	}

	query := fmt.Sprintf(
		`SELECT r.report_id FROM reports r WHERE %s ORDER BY r.report_id`,
		whereClause(clauses))
	query, args = applyCap(query, args, params.CohortCap)

	return db.queryIDs(ctx, query, args)
}

func (db *DB) resolveWithOnsetDays(ctx context.Context, params models.SignalParams) ([]int64, error) {
	clauses, args := buildReportConditions(params.Filter, "r")

	// Reports missing either date have no defined onset interval and are
	// excluded whenever a day range is in force.
	clauses = append(clauses, "r.vax_date IS NOT NULL", "r.onset_date IS NOT NULL")
	if params.OnsetDay.Min != nil {
		clauses = append(clauses, "datediff('day', r.vax_date, r.onset_date) >= ?")
		args = append(args, *params.OnsetDay.Min)
	}
	if params.OnsetDay.Max != nil {
		clauses = append(clauses, "datediff('day', r.vax_date, r.onset_date) <= ?")
		args = append(args, *params.OnsetDay.Max)
	}

	if vc, va := vaccineConditions(params.Join, "v"); len(vc) > 0 {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM vaccines v WHERE v.report_id = r.report_id AND %s)",
			strings.Join(vc, " AND ")))
		args = append(args, va...)
	}
	if sc, sa := symptomConditions(params.Join, "s"); len(sc) > 0 {
		clauses = append(clauses, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM symptoms s WHERE s.report_id = r.report_id AND %s)",
			strings.Join(sc, " AND ")))
		args = append(args, sa...)
	}

	query := fmt.Sprintf(
		`SELECT r.report_id FROM reports r WHERE %s ORDER BY r.report_id`,
		whereClause(clauses))
	query, args = applyCap(query, args, params.CohortCap)

	return db.queryIDs(ctx, query, args)
}

// vaccineMatchIDs resolves the distinct report IDs whose vaccine rows match
// the join filter, sorted ascending.
func (db *DB) vaccineMatchIDs(ctx context.Context, j models.JoinFilter) ([]int64, error) {
	clauses, args := vaccineConditions(j, "v")
	query := fmt.Sprintf(
		`SELECT DISTINCT v.report_id FROM vaccines v WHERE %s ORDER BY v.report_id`,
		whereClause(clauses))
	return db.queryIDs(ctx, query, args)
}

// symptomMatchIDs resolves the distinct report IDs whose symptom rows match
// the join filter, sorted ascending.
func (db *DB) symptomMatchIDs(ctx context.Context, j models.JoinFilter) ([]int64, error) {
	clauses, args := symptomConditions(j, "s")
	query := fmt.Sprintf(
		`SELECT DISTINCT s.report_id FROM symptoms s WHERE %s ORDER BY s.report_id`,
		whereClause(clauses))
	return db.queryIDs(ctx, query, args)
}

func (db *DB) queryIDs(ctx context.Context, query string, args []interface{}) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	ids := make([]int64, 0, 256)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// applyCap appends a LIMIT when the cohort cap is positive.
func applyCap(query string, args []interface{}, cap int) (string, []interface{}) {
	if cap <= 0 {
		return query, args
	}
	return query + " LIMIT ?", append(args, cap)
}

// intersectSorted merges two ascending ID slices, keeping common members.
func intersectSorted(a, b []int64) []int64 {
	out := make([]int64, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
