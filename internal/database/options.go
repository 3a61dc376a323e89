// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"

	"github.com/openvigil/vaxsignal/internal/models"
)

// FilterOptions lists the distinct filterable values present in the corpus,
// for populating UI dropdowns. Empty strings are excluded; everything is
// returned sorted so the payload is stable across restarts.
func (db *DB) FilterOptions(ctx context.Context) (*models.FilterOptions, error) {
	v, err := db.execute("filter_options", func() (any, error) {
		opts := &models.FilterOptions{
			VaxTypes:      []string{},
			Manufacturers: []string{},
			States:        []string{},
			Years:         []int{},
		}

		var err error
		if opts.VaxTypes, err = db.distinctStrings(ctx,
			`SELECT DISTINCT vax_type FROM vaccines WHERE vax_type <> '' ORDER BY vax_type`); err != nil {
			return nil, err
		}
		if opts.Manufacturers, err = db.distinctStrings(ctx,
			`SELECT DISTINCT vax_manu FROM vaccines WHERE vax_manu <> '' ORDER BY vax_manu`); err != nil {
			return nil, err
		}
		if opts.States, err = db.distinctStrings(ctx,
			`SELECT DISTINCT state FROM reports WHERE state <> '' ORDER BY state`); err != nil {
			return nil, err
		}

		rows, err := db.conn.QueryContext(ctx,
			`SELECT DISTINCT recv_year FROM reports ORDER BY recv_year`)
		if err != nil {
			return nil, err
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			var year int
			if err := rows.Scan(&year); err != nil {
				return nil, err
			}
			opts.Years = append(opts.Years, year)
		}
		return opts, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.FilterOptions), nil
}

func (db *DB) distinctStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer closeWithLog(rows, "rows")

	values := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		values = append(values, s)
	}
	return values, rows.Err()
}
