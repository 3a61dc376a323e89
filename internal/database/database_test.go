// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/openvigil/vaxsignal/internal/config"
	"github.com/openvigil/vaxsignal/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// newTestDB opens an in-memory store loaded with a small fixed corpus:
//
//	id  year  vaccine           terms                   onset day
//	1   2024  COVID19/MODERNA   Myocarditis, Headache   4
//	2   2024  COVID19/MODERNA   Headache                10
//	3   2023  FLU4/SEQIRUS      Headache                1     (died)
//	4   2024  HPV9/MERCK        Syncope                 no onset date
//	5   2023  COVID19/PFIZER    Myocarditis             30
//	6   2024  MMR/MERCK         Rash                    -2
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	age := func(v float64) *float64 { return &v }
	reports := []models.Report{
		{ReportID: 1, RecvYear: 2024, Sex: "F", State: "CA", AgeYears: age(30),
			VaxDate: date(2024, 1, 1), OnsetDate: date(2024, 1, 5), History: "Hypertension", Hospital: true},
		{ReportID: 2, RecvYear: 2024, Sex: "M", State: "TX", AgeYears: age(45),
			VaxDate: date(2024, 2, 1), OnsetDate: date(2024, 2, 11)},
		{ReportID: 3, RecvYear: 2023, Sex: "F", State: "CA", AgeYears: age(70),
			VaxDate: date(2023, 10, 1), OnsetDate: date(2023, 10, 2), Died: true},
		{ReportID: 4, RecvYear: 2024, Sex: "F", State: "NY", AgeYears: age(16),
			VaxDate: date(2024, 3, 1)},
		{ReportID: 5, RecvYear: 2023, Sex: "M", State: "CA",
			VaxDate: date(2023, 5, 1), OnsetDate: date(2023, 5, 31)},
		{ReportID: 6, RecvYear: 2024, Sex: "U",
			VaxDate: date(2024, 4, 3), OnsetDate: date(2024, 4, 1)},
	}
	vaccines := []models.VaccineAdministration{
		{ReportID: 1, VaxType: "COVID19", VaxManu: "MODERNA"},
		{ReportID: 2, VaxType: "COVID19", VaxManu: "MODERNA"},
		{ReportID: 3, VaxType: "FLU4", VaxManu: "SEQIRUS"},
		{ReportID: 4, VaxType: "HPV9", VaxManu: "MERCK"},
		{ReportID: 5, VaxType: "COVID19", VaxManu: "PFIZER"},
		{ReportID: 6, VaxType: "MMR", VaxManu: "MERCK"},
	}
	symptoms := []models.SymptomObservation{
		{ReportID: 1, Symptom1: "Myocarditis", Symptom2: "Headache", SymptomText: "chest pain and headache"},
		{ReportID: 2, Symptom1: "Headache"},
		{ReportID: 3, Symptom1: "Headache"},
		{ReportID: 4, Symptom1: "Syncope", SymptomText: "fainted after injection"},
		{ReportID: 5, Symptom1: "Myocarditis"},
		{ReportID: 6, Symptom1: "Rash"},
	}

	if err := db.LoadCorpus(context.Background(), reports, vaccines, symptoms); err != nil {
		t.Fatalf("load corpus: %v", err)
	}
	return db
}

func TestResolveCohortNoFilters(t *testing.T) {
	db := newTestDB(t)

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{1, 2, 3, 4, 5, 6}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestResolveCohortReportPredicate(t *testing.T) {
	db := newTestDB(t)
	year := 2024

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		Filter: models.ReportFilter{Year: &year},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{1, 2, 4, 6}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestResolveCohortJoinIntersection(t *testing.T) {
	db := newTestDB(t)

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		Join: models.JoinFilter{VaxType: "COVID19", SymptomTerm: "Myocarditis"},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{1, 5}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestResolveCohortEmptyJoinShortCircuits(t *testing.T) {
	db := newTestDB(t)

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		Join: models.JoinFilter{SymptomTerm: "Nonexistent term"},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("cohort = %v, want empty", ids)
	}
}

func TestResolveCohortOnsetDayRange(t *testing.T) {
	db := newTestDB(t)
	lo, hi := 0, 10

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		OnsetDay: models.OnsetDayRange{Min: &lo, Max: &hi},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	// Report 4 has no onset date; report 6 is negative; report 5 is day 30.
	if want := []int64{1, 2, 3}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestResolveCohortOnsetDayWithJoin(t *testing.T) {
	db := newTestDB(t)
	lo := 0

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		Join:     models.JoinFilter{VaxType: "COVID19"},
		OnsetDay: models.OnsetDayRange{Min: &lo},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{1, 2, 5}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestResolveCohortCapIsDeterministic(t *testing.T) {
	db := newTestDB(t)
	params := models.SignalParams{CohortCap: 3}

	first, err := db.ResolveCohort(context.Background(), params)
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{1, 2, 3}; !reflect.DeepEqual(first, want) {
		t.Fatalf("capped cohort = %v, want %v", first, want)
	}
	for i := 0; i < 5; i++ {
		again, err := db.ResolveCohort(context.Background(), params)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d returned %v, want %v", i, again, first)
		}
	}
}

func TestResolveCohortHistoryRegexFilter(t *testing.T) {
	db := newTestDB(t)

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		Filter: models.ReportFilter{History: "hyper"},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{1}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestResolveCohortSymptomTextFilter(t *testing.T) {
	db := newTestDB(t)

	ids, err := db.ResolveCohort(context.Background(), models.SignalParams{
		Join: models.JoinFilter{SymptomText: "FAINTED"},
	})
	if err != nil {
		t.Fatalf("ResolveCohort: %v", err)
	}
	if want := []int64{4}; !reflect.DeepEqual(ids, want) {
		t.Errorf("cohort = %v, want %v", ids, want)
	}
}

func TestMarginalsAndPairCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cohort := []int64{1, 2, 3, 4, 5, 6}

	vaxTotals, err := db.VaccineMarginals(ctx, cohort)
	if err != nil {
		t.Fatalf("VaccineMarginals: %v", err)
	}
	if got := vaxTotals[models.VaccineKey{VaxType: "COVID19", VaxManu: "MODERNA"}]; got != 2 {
		t.Errorf("COVID19/MODERNA marginal = %d, want 2", got)
	}

	symTotals, err := db.SymptomMarginals(ctx, cohort)
	if err != nil {
		t.Fatalf("SymptomMarginals: %v", err)
	}
	if symTotals["Headache"] != 3 {
		t.Errorf("Headache marginal = %d, want 3", symTotals["Headache"])
	}
	if symTotals["Myocarditis"] != 2 {
		t.Errorf("Myocarditis marginal = %d, want 2", symTotals["Myocarditis"])
	}
	if _, ok := symTotals[""]; ok {
		t.Error("empty term slot leaked into marginals")
	}

	pairs, err := db.PairCounts(ctx, cohort)
	if err != nil {
		t.Fatalf("PairCounts: %v", err)
	}
	if got := pairs[models.PairKey{VaxType: "COVID19", VaxManu: "MODERNA", Term: "Headache"}]; got != 2 {
		t.Errorf("MODERNA/Headache joint count = %d, want 2", got)
	}

	for key, a := range pairs {
		vaxTotal := vaxTotals[key.Vaccine()]
		symTotal := symTotals[key.Term]
		if a > vaxTotal || a > symTotal {
			t.Errorf("%v: a=%d exceeds marginals (%d, %d)", key, a, vaxTotal, symTotal)
		}
	}
}

func TestRepeatedTermMarginalVersusJointCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// One report coding the same term in two slots: the marginal counts
	// both occurrences, the joint count stays per distinct report.
	err := db.LoadCorpus(ctx,
		[]models.Report{{ReportID: 7, RecvYear: 2024, VaxDate: date(2024, 5, 1)}},
		[]models.VaccineAdministration{{ReportID: 7, VaxType: "COVID19", VaxManu: "MODERNA"}},
		[]models.SymptomObservation{{ReportID: 7, Symptom1: "Headache", Symptom2: "Headache"}},
	)
	if err != nil {
		t.Fatalf("load extra report: %v", err)
	}
	cohort := []int64{7}

	symTotals, err := db.SymptomMarginals(ctx, cohort)
	if err != nil {
		t.Fatalf("SymptomMarginals: %v", err)
	}
	if symTotals["Headache"] != 2 {
		t.Errorf("Headache marginal = %d, want 2 (per occurrence)", symTotals["Headache"])
	}

	vaxTotals, err := db.VaccineMarginals(ctx, cohort)
	if err != nil {
		t.Fatalf("VaccineMarginals: %v", err)
	}
	key := models.PairKey{VaxType: "COVID19", VaxManu: "MODERNA", Term: "Headache"}
	if got := vaxTotals[key.Vaccine()]; got != 1 {
		t.Fatalf("vaccine marginal = %d, want 1", got)
	}

	pairs, err := db.PairCounts(ctx, cohort)
	if err != nil {
		t.Fatalf("PairCounts: %v", err)
	}
	if got := pairs[key]; got != 1 {
		t.Errorf("joint count = %d, want 1 (per distinct report)", got)
	}
	if pairs[key] > vaxTotals[key.Vaccine()] {
		t.Errorf("joint count %d exceeds vaccine marginal %d", pairs[key], vaxTotals[key.Vaccine()])
	}
}

func TestMarginalsScopedToCohort(t *testing.T) {
	db := newTestDB(t)

	vaxTotals, err := db.VaccineMarginals(context.Background(), []int64{1, 2})
	if err != nil {
		t.Fatalf("VaccineMarginals: %v", err)
	}
	if len(vaxTotals) != 1 {
		t.Errorf("marginals outside the cohort: %v", vaxTotals)
	}
	if got := vaxTotals[models.VaccineKey{VaxType: "COVID19", VaxManu: "MODERNA"}]; got != 2 {
		t.Errorf("COVID19/MODERNA marginal = %d, want 2", got)
	}
}

func TestEmptyCohortQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if m, err := db.VaccineMarginals(ctx, nil); err != nil || len(m) != 0 {
		t.Errorf("VaccineMarginals(nil) = %v, %v", m, err)
	}
	if m, err := db.SymptomMarginals(ctx, nil); err != nil || len(m) != 0 {
		t.Errorf("SymptomMarginals(nil) = %v, %v", m, err)
	}
	if p, err := db.PairCounts(ctx, nil); err != nil || len(p) != 0 {
		t.Errorf("PairCounts(nil) = %v, %v", p, err)
	}
	if d, err := db.OnsetDays(ctx, nil); err != nil || len(d) != 0 {
		t.Errorf("OnsetDays(nil) = %v, %v", d, err)
	}
}

func TestOnsetDaysSkipsMissingDates(t *testing.T) {
	db := newTestDB(t)

	days, err := db.OnsetDays(context.Background(), []int64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("OnsetDays: %v", err)
	}
	// Report 4 has no onset date; ordering follows report id.
	if want := []int64{4, 10, 1, 30, -2}; !reflect.DeepEqual(days, want) {
		t.Errorf("days = %v, want %v", days, want)
	}
}

func TestMonthlyOnsetCounts(t *testing.T) {
	db := newTestDB(t)

	series, err := db.MonthlyOnsetCounts(context.Background(), []int64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("MonthlyOnsetCounts: %v", err)
	}
	// Report 4 has no onset date; months come back ascending.
	want := []models.TrendPoint{
		{Month: "2023-05", N: 1},
		{Month: "2023-10", N: 1},
		{Month: "2024-01", N: 1},
		{Month: "2024-02", N: 1},
		{Month: "2024-04", N: 1},
	}
	if !reflect.DeepEqual(series, want) {
		t.Errorf("series = %v, want %v", series, want)
	}

	if empty, err := db.MonthlyOnsetCounts(context.Background(), nil); err != nil || len(empty) != 0 {
		t.Errorf("MonthlyOnsetCounts(nil) = %v, %v", empty, err)
	}
}

func TestOutcomeTallies(t *testing.T) {
	db := newTestDB(t)

	tally, err := db.OutcomeTallies(context.Background(), []int64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("OutcomeTallies: %v", err)
	}
	if tally.Total != 6 {
		t.Errorf("Total = %d, want 6", tally.Total)
	}
	if tally.Died != 1 || tally.Hospital != 1 {
		t.Errorf("Died/Hospital = %d/%d, want 1/1", tally.Died, tally.Hospital)
	}
	if tally.LifeThreat != 0 || tally.Disabled != 0 || tally.BirthDefect != 0 || tally.Recovered != 0 {
		t.Errorf("unexpected nonzero tallies: %+v", tally)
	}
}

func TestStateBreakdown(t *testing.T) {
	db := newTestDB(t)

	states, err := db.StateBreakdown(context.Background(), []int64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("StateBreakdown: %v", err)
	}
	// Report 6 has no state; ties order alphabetically.
	if len(states) != 3 {
		t.Fatalf("got %d states, want 3: %v", len(states), states)
	}
	ca := states[0]
	if ca.State != "CA" || ca.Count != 3 {
		t.Fatalf("first state = %+v, want CA with count 3", ca)
	}
	// CA serious reports: 1 (hospital) and 3 (died); ages 30 and 70.
	if ca.SeriousCount != 2 {
		t.Errorf("CA serious count = %d, want 2", ca.SeriousCount)
	}
	if ca.SeriousRatio != 0.667 {
		t.Errorf("CA serious ratio = %v, want 0.667", ca.SeriousRatio)
	}
	if ca.AvgAge != 50.0 {
		t.Errorf("CA avg age = %v, want 50.0", ca.AvgAge)
	}
	if states[1].State != "NY" || states[2].State != "TX" {
		t.Errorf("tie order = %s, %s, want NY, TX", states[1].State, states[2].State)
	}
}

func TestSampleReports(t *testing.T) {
	db := newTestDB(t)

	results, err := db.SampleReports(context.Background(), []int64{1, 2, 3, 4, 5, 6}, 3)
	if err != nil {
		t.Fatalf("SampleReports: %v", err)
	}
	// Ordered by (recv_year, report_id): 2023 reports first.
	ids := make([]int64, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ReportID)
	}
	if want := []int64{3, 5, 1}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("sample ids = %v, want %v", ids, want)
	}

	first := results[0]
	if !first.Died || first.Sex != "F" || first.State != "CA" {
		t.Errorf("report 3 fields = %+v", first)
	}
	if first.OnsetDate == nil || !first.OnsetDate.Equal(*date(2023, 10, 2)) {
		t.Errorf("report 3 onset date = %v", first.OnsetDate)
	}
	if results[2].AgeYears == nil || *results[2].AgeYears != 30 {
		t.Errorf("report 1 age = %v, want 30", results[2].AgeYears)
	}
}

func TestFilterOptions(t *testing.T) {
	db := newTestDB(t)

	opts, err := db.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if want := []string{"COVID19", "FLU4", "HPV9", "MMR"}; !reflect.DeepEqual(opts.VaxTypes, want) {
		t.Errorf("VaxTypes = %v, want %v", opts.VaxTypes, want)
	}
	if want := []string{"CA", "NY", "TX"}; !reflect.DeepEqual(opts.States, want) {
		t.Errorf("States = %v, want %v", opts.States, want)
	}
	if want := []int{2023, 2024}; !reflect.DeepEqual(opts.Years, want) {
		t.Errorf("Years = %v, want %v", opts.Years, want)
	}
}

func TestSeedDemoCorpusIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	before, err := db.ReportCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// The corpus already has reports, so seeding must be a no-op.
	if err := db.SeedDemoCorpus(ctx); err != nil {
		t.Fatalf("SeedDemoCorpus: %v", err)
	}
	after, err := db.ReportCount(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if before != after {
		t.Errorf("report count changed %d -> %d, want unchanged", before, after)
	}
}
