// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package signal

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openvigil/vaxsignal/internal/cache"
	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/metrics"
	"github.com/openvigil/vaxsignal/internal/models"
)

// Store is the relation-store surface the pipeline consumes. It is
// satisfied by *database.DB; tests substitute a fake.
type Store interface {
	ResolveCohort(ctx context.Context, params models.SignalParams) ([]int64, error)
	VaccineMarginals(ctx context.Context, cohort []int64) (map[models.VaccineKey]int64, error)
	SymptomMarginals(ctx context.Context, cohort []int64) (map[string]int64, error)
	PairCounts(ctx context.Context, cohort []int64) (map[models.PairKey]int64, error)
	OnsetDays(ctx context.Context, cohort []int64) ([]int64, error)
	MonthlyOnsetCounts(ctx context.Context, cohort []int64) ([]models.TrendPoint, error)
	OutcomeTallies(ctx context.Context, cohort []int64) (*models.OutcomeTally, error)
	StateBreakdown(ctx context.Context, cohort []int64) ([]models.StateCount, error)
	SampleReports(ctx context.Context, cohort []int64, limit int) ([]models.Report, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
}

// Service orchestrates the signal-detection pipeline:
// cohort resolution, then marginal aggregation and pair tabulation in
// parallel, then the metric engine and the ranker, with the whole run memoized
// under a stable hash of the canonical parameters.
type Service struct {
	store Store
	cache *cache.Cache
	ttl   time.Duration
}

// NewService builds a pipeline service on the given store and cache.
// ttl bounds how long computed responses stay valid.
func NewService(store Store, responseCache *cache.Cache, ttl time.Duration) *Service {
	return &Service{store: store, cache: responseCache, ttl: ttl}
}

// Signals runs one signal-detection request. The bool return reports
// whether the response was served from cache (or shared with a concurrent
// identical request). Partial results are never returned: any store
// failure aborts the whole request uncached.
func (s *Service) Signals(ctx context.Context, params models.SignalParams) (*models.SignalResponse, bool, error) {
	key, err := requestKey("signals", params)
	if err != nil {
		return nil, false, err
	}

	v, cached, err := s.cache.GetOrSet(key, func() (interface{}, error) {
		return s.computeSignals(ctx, params)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.SignalResponse), cached, nil
}

func (s *Service) computeSignals(ctx context.Context, params models.SignalParams) (*models.SignalResponse, error) {
	start := time.Now()

	cohort, err := s.store.ResolveCohort(ctx, params)
	if err != nil {
		return nil, err
	}
	metrics.ObserveStage("resolve_cohort", start)

	resp := &models.SignalResponse{
		TimeUTC: time.Now().UTC(),
		N:       int64(len(cohort)),
		Params:  params,
		Results: []models.SignalRow{},
	}

	if len(cohort) == 0 {
		resp.Message = "no reports matched the filter"
		return resp, nil
	}

	var (
		vaxTotals map[models.VaccineKey]int64
		symTotals map[string]int64
		pairs     map[models.PairKey]int64
	)

	tabStart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vaxTotals, err = s.store.VaccineMarginals(gctx, cohort)
		return err
	})
	g.Go(func() error {
		var err error
		symTotals, err = s.store.SymptomMarginals(gctx, cohort)
		return err
	})
	g.Go(func() error {
		var err error
		pairs, err = s.store.PairCounts(gctx, cohort)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	metrics.ObserveStage("tabulate", tabStart)

	rankStart := time.Now()
	rows := buildRows(resp.N, pairs, vaxTotals, symTotals, params)
	resp.Results = Rank(rows, params.SortBy, params.Limit)
	metrics.ObserveStage("rank", rankStart)

	logging.Debug().
		Int64("n", resp.N).
		Int("pairs", len(pairs)).
		Int("results", len(resp.Results)).
		Dur("elapsed", time.Since(start)).
		Msg("Signal pipeline complete")
	return resp, nil
}

// Onset computes the onset-day histogram for the cohort the parameters
// resolve. It shares the cohort-resolution path with Signals and is
// memoized the same way.
func (s *Service) Onset(ctx context.Context, params models.OnsetParams) (*models.OnsetResponse, bool, error) {
	key, err := requestKey("onset", params)
	if err != nil {
		return nil, false, err
	}

	v, cached, err := s.cache.GetOrSet(key, func() (interface{}, error) {
		return s.computeOnset(ctx, params)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.OnsetResponse), cached, nil
}

func (s *Service) computeOnset(ctx context.Context, params models.OnsetParams) (*models.OnsetResponse, error) {
	cohort, err := s.store.ResolveCohort(ctx, models.SignalParams{
		Filter:    params.Filter,
		Join:      params.Join,
		OnsetDay:  params.OnsetDay,
		CohortCap: params.CohortCap,
	})
	if err != nil {
		return nil, err
	}

	resp := &models.OnsetResponse{
		TimeUTC: time.Now().UTC(),
		NBase:   int64(len(cohort)),
		Buckets: []models.OnsetBucket{},
	}
	if len(cohort) == 0 {
		return resp, nil
	}

	days, err := s.store.OnsetDays(ctx, cohort)
	if err != nil {
		return nil, err
	}

	resp.Obs = int64(len(days))
	resp.Stats = onsetStats(days)
	resp.Buckets = onsetBuckets(days, params.Buckets, params.ClipMaxDays)
	return resp, nil
}

// Options returns the distinct filter values, cached under a fixed key so
// dropdown population does not hit the store per page load.
func (s *Service) Options(ctx context.Context) (*models.FilterOptions, bool, error) {
	v, cached, err := s.cache.GetOrSet("filter_options", func() (interface{}, error) {
		return s.store.FilterOptions(ctx)
	}, s.ttl)
	if err != nil {
		return nil, false, err
	}
	return v.(*models.FilterOptions), cached, nil
}

// requestKey derives the cache key for one request family from the
// canonical parameter struct. Logically equal parameters always collide.
func requestKey(family string, params interface{}) (string, error) {
	digest, err := cache.StableHash(params)
	if err != nil {
		return "", fmt.Errorf("derive %s cache key: %w", family, err)
	}
	return family + ":" + digest, nil
}
