// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package signal

import (
	"context"
	"time"

	"github.com/openvigil/vaxsignal/internal/models"
)

// The cohort-level analytics endpoints (trends, outcomes, geo, search) all
// share the signal pipeline's cohort resolution and response memoization;
// only the per-cohort aggregation differs.

// outcomeLabels fixes the order and display keys of the outcome tally.
var outcomeLabels = []struct {
	key   string
	count func(t *models.OutcomeTally) int64
}{
	{"Died", func(t *models.OutcomeTally) int64 { return t.Died }},
	{"Hospitalized", func(t *models.OutcomeTally) int64 { return t.Hospital }},
	{"Life-threatening", func(t *models.OutcomeTally) int64 { return t.LifeThreat }},
	{"Disabled", func(t *models.OutcomeTally) int64 { return t.Disabled }},
	{"Birth defect", func(t *models.OutcomeTally) int64 { return t.BirthDefect }},
	{"Recovered", func(t *models.OutcomeTally) int64 { return t.Recovered }},
}

// Trends computes the monthly onset-date series for the resolved cohort.
func (s *Service) Trends(ctx context.Context, params models.TrendsParams) (*models.TrendsResponse, bool, error) {
	key, err := requestKey("trends", params)
	if err != nil {
		return nil, false, err
	}

	v, cached, err := s.cache.GetOrSet(key, func() (interface{}, error) {
		return s.computeTrends(ctx, params)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.TrendsResponse), cached, nil
}

func (s *Service) computeTrends(ctx context.Context, params models.TrendsParams) (*models.TrendsResponse, error) {
	cohort, err := s.resolveCohort(ctx, params.Filter, params.Join, params.OnsetDay, params.CohortCap)
	if err != nil {
		return nil, err
	}

	resp := &models.TrendsResponse{
		TimeUTC: time.Now().UTC(),
		NBase:   int64(len(cohort)),
		Series:  []models.TrendPoint{},
	}
	if len(cohort) == 0 {
		return resp, nil
	}

	series, err := s.store.MonthlyOnsetCounts(ctx, cohort)
	if err != nil {
		return nil, err
	}
	if params.ClipMonths > 0 && len(series) > params.ClipMonths {
		series = series[len(series)-params.ClipMonths:]
	}
	resp.Series = series
	resp.Points = len(series)
	return resp, nil
}

// Outcomes tallies the outcome flags across the resolved cohort. The
// response lists every flag even for an empty cohort, zero-counted, so
// chart axes stay stable.
func (s *Service) Outcomes(ctx context.Context, params models.OutcomesParams) (*models.OutcomesResponse, bool, error) {
	key, err := requestKey("outcomes", params)
	if err != nil {
		return nil, false, err
	}

	v, cached, err := s.cache.GetOrSet(key, func() (interface{}, error) {
		return s.computeOutcomes(ctx, params)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.OutcomesResponse), cached, nil
}

func (s *Service) computeOutcomes(ctx context.Context, params models.OutcomesParams) (*models.OutcomesResponse, error) {
	cohort, err := s.resolveCohort(ctx, params.Filter, params.Join, params.OnsetDay, params.CohortCap)
	if err != nil {
		return nil, err
	}

	tally := &models.OutcomeTally{}
	if len(cohort) > 0 {
		tally, err = s.store.OutcomeTallies(ctx, cohort)
		if err != nil {
			return nil, err
		}
	}

	outcomes := make([]models.OutcomeCount, 0, len(outcomeLabels))
	for _, label := range outcomeLabels {
		outcomes = append(outcomes, models.OutcomeCount{Key: label.key, Count: label.count(tally)})
	}
	return &models.OutcomesResponse{
		TimeUTC:  time.Now().UTC(),
		NBase:    int64(len(cohort)),
		Total:    tally.Total,
		Outcomes: outcomes,
	}, nil
}

// Geo breaks the resolved cohort down by state for map rendering.
func (s *Service) Geo(ctx context.Context, params models.GeoParams) (*models.GeoResponse, bool, error) {
	key, err := requestKey("geo", params)
	if err != nil {
		return nil, false, err
	}

	v, cached, err := s.cache.GetOrSet(key, func() (interface{}, error) {
		return s.computeGeo(ctx, params)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.GeoResponse), cached, nil
}

func (s *Service) computeGeo(ctx context.Context, params models.GeoParams) (*models.GeoResponse, error) {
	cohort, err := s.resolveCohort(ctx, params.Filter, params.Join, params.OnsetDay, params.CohortCap)
	if err != nil {
		return nil, err
	}

	resp := &models.GeoResponse{
		TimeUTC: time.Now().UTC(),
		NBase:   int64(len(cohort)),
		States:  []models.StateCount{},
	}
	if len(cohort) == 0 {
		return resp, nil
	}

	states, err := s.store.StateBreakdown(ctx, cohort)
	if err != nil {
		return nil, err
	}
	resp.States = states
	for _, st := range states {
		resp.Total += st.Count
	}
	return resp, nil
}

// Search returns a deterministic sample of cohort reports alongside the
// full cohort count.
func (s *Service) Search(ctx context.Context, params models.SearchParams) (*models.SearchResponse, bool, error) {
	key, err := requestKey("search", params)
	if err != nil {
		return nil, false, err
	}

	v, cached, err := s.cache.GetOrSet(key, func() (interface{}, error) {
		return s.computeSearch(ctx, params)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.SearchResponse), cached, nil
}

func (s *Service) computeSearch(ctx context.Context, params models.SearchParams) (*models.SearchResponse, error) {
	cohort, err := s.resolveCohort(ctx, params.Filter, params.Join, params.OnsetDay, params.CohortCap)
	if err != nil {
		return nil, err
	}

	resp := &models.SearchResponse{
		TimeUTC: time.Now().UTC(),
		Count:   int64(len(cohort)),
		Limit:   params.Limit,
		Results: []models.Report{},
	}
	if len(cohort) == 0 {
		return resp, nil
	}

	results, err := s.store.SampleReports(ctx, cohort, params.Limit)
	if err != nil {
		return nil, err
	}
	resp.Results = results
	return resp, nil
}

// resolveCohort adapts the shared cohort-selection fields onto the store's
// SignalParams-shaped resolution call.
func (s *Service) resolveCohort(ctx context.Context, filter models.ReportFilter, join models.JoinFilter, onsetDay models.OnsetDayRange, cohortCap int) ([]int64, error) {
	return s.store.ResolveCohort(ctx, models.SignalParams{
		Filter:    filter,
		Join:      join,
		OnsetDay:  onsetDay,
		CohortCap: cohortCap,
	})
}
