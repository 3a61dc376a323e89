// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package database

import (
	"context"
	"math/rand"
	"time"

	"github.com/openvigil/vaxsignal/internal/logging"
	"github.com/openvigil/vaxsignal/internal/models"
)

// demoSeed fixes the generator so every demo deployment gets the same
// corpus and therefore the same signal rankings.
const demoSeed = 20260101

// SeedDemoCorpus loads a synthetic adverse-event corpus for demo and
// development deployments. It is a no-op when the corpus already has
// reports.
//
// The generator plants two deliberate disproportionality signals (one
// strong, one borderline) on top of a uniform background so the default
// parameters surface something interesting.
func (db *DB) SeedDemoCorpus(ctx context.Context) error {
	n, err := db.ReportCount(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logging.Debug().Int64("reports", n).Msg("Corpus already loaded, skipping demo seed")
		return nil
	}

	reports, vaccines, symptoms := generateDemoCorpus()
	if err := db.LoadCorpus(ctx, reports, vaccines, symptoms); err != nil {
		return err
	}

	logging.Info().
		Int("reports", len(reports)).
		Int("vaccines", len(vaccines)).
		Int("symptom_rows", len(symptoms)).
		Msg("Demo corpus seeded")
	return nil
}

func generateDemoCorpus() ([]models.Report, []models.VaccineAdministration, []models.SymptomObservation) {
	rng := rand.New(rand.NewSource(demoSeed))

	vaccinePool := []models.VaccineKey{
		{VaxType: "COVID19", VaxManu: "MODERNA"},
		{VaxType: "COVID19", VaxManu: "PFIZER\\BIONTECH"},
		{VaxType: "FLU4", VaxManu: "SEQIRUS"},
		{VaxType: "HPV9", VaxManu: "MERCK"},
		{VaxType: "MMR", VaxManu: "MERCK"},
		{VaxType: "VARZOS", VaxManu: "GSK"},
	}
	backgroundTerms := []string{
		"Headache", "Pyrexia", "Fatigue", "Injection site pain",
		"Nausea", "Dizziness", "Chills", "Myalgia", "Rash", "Arthralgia",
	}
	states := []string{"CA", "TX", "NY", "FL", "WA", "OH", "PA", ""}
	sexes := []string{"F", "M", "U"}

	const total = 800
	reports := make([]models.Report, 0, total)
	vaccines := make([]models.VaccineAdministration, 0, total)
	symptoms := make([]models.SymptomObservation, 0, total)

	for i := 0; i < total; i++ {
		id := int64(100001 + i)
		year := 2023 + rng.Intn(3)

		vaxDay := time.Date(year, time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		var vaxDate, onsetDate *time.Time
		if rng.Float64() < 0.9 {
			vaxDate = &vaxDay
			if rng.Float64() < 0.85 {
				onset := vaxDay.AddDate(0, 0, rng.Intn(30))
				onsetDate = &onset
			}
		}

		var age *float64
		if rng.Float64() < 0.8 {
			a := float64(1 + rng.Intn(90))
			age = &a
		}

		report := models.Report{
			ReportID:  id,
			RecvYear:  year,
			Sex:       sexes[rng.Intn(len(sexes))],
			State:     states[rng.Intn(len(states))],
			AgeYears:  age,
			Died:      rng.Float64() < 0.01,
			Hospital:  rng.Float64() < 0.08,
			Recovered: rng.Float64() < 0.6,
			VaxDate:   vaxDate,
			OnsetDate: onsetDate,
		}
		if rng.Float64() < 0.15 {
			report.History = "Hypertension"
		}
		if rng.Float64() < 0.1 {
			report.Allergies = "Penicillin"
		}

		vax := vaccinePool[rng.Intn(len(vaccinePool))]
		vaccines = append(vaccines, models.VaccineAdministration{
			ReportID: id, VaxType: vax.VaxType, VaxManu: vax.VaxManu,
		})

		terms := []string{backgroundTerms[rng.Intn(len(backgroundTerms))]}
		if rng.Float64() < 0.5 {
			terms = append(terms, backgroundTerms[rng.Intn(len(backgroundTerms))])
		}

		// Planted signals: myocarditis concentrates on one COVID19 brand,
		// syncope weakly on HPV9.
		if vax.VaxType == "COVID19" && vax.VaxManu == "MODERNA" && rng.Float64() < 0.25 {
			terms = append(terms, "Myocarditis")
			report.Hospital = true
		}
		if vax.VaxType == "HPV9" && rng.Float64() < 0.12 {
			terms = append(terms, "Syncope")
		}

		obs := models.SymptomObservation{ReportID: id, SymptomText: "Patient reported " + terms[0]}
		slots := []*string{&obs.Symptom1, &obs.Symptom2, &obs.Symptom3, &obs.Symptom4, &obs.Symptom5}
		for k, t := range terms {
			if k >= len(slots) {
				break
			}
			*slots[k] = t
		}
		symptoms = append(symptoms, obs)
		reports = append(reports, report)
	}

	return reports, vaccines, symptoms
}
