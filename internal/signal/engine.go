// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

// Package signal implements the disproportionality pipeline: contingency
// tabulation, PRR/ROR metric computation, ranking, and the orchestrating
// service that ties the relation store and the response cache together.
package signal

import "math"

// waldZ is the 97.5th normal percentile, giving 95% two-sided intervals.
const waldZ = 1.96

// Metrics is the outcome of one 2x2 contingency computation. A, B, C, D
// are the post-clamp (pre-correction) cells; pointer fields are nil where
// the guards leave the value undefined.
type Metrics struct {
	A, B, C, D int64
	CCApplied  bool
	PRR        *float64
	PRRCI      *[2]float64
	ROR        *float64
	RORCI      *[2]float64
}

// Compute derives the contingency cells and disproportionality metrics for
// one (vaccine, symptom) pair. It is a pure function: no I/O, deterministic,
// and local; a degenerate cell nulls this pair's metrics without error.
//
// Cells, clamped so negatives from anomalous counts cannot occur:
//
//	a = joint count
//	b = vaccine total − a   (vaccine without the symptom)
//	c = symptom total − a   (symptom without the vaccine)
//	d = N − a − b − c       (neither)
//
// When cc > 0 and any cell is exactly zero, cc is added to all four cells
// before the ratios; otherwise raw cells are used. PRR is defined when
// (a+b) > 0, (c+d) > 0 and c > 0 post-correction; ROR when all four
// post-correction cells are positive. The Wald intervals are computed on
// the log scale and nulled on any domain error rather than propagated.
func Compute(n, a, vaxTotal, symTotal int64, cc float64) Metrics {
	b := max(vaxTotal-a, 0)
	c := max(symTotal-a, 0)
	d := max(n-a-b-c, 0)

	m := Metrics{A: a, B: b, C: c, D: d}

	anyZero := a == 0 || b == 0 || c == 0 || d == 0
	m.CCApplied = cc > 0 && anyZero

	a1, b1, c1, d1 := float64(a), float64(b), float64(c), float64(d)
	if m.CCApplied {
		a1 += cc
		b1 += cc
		c1 += cc
		d1 += cc
	}

	if a1+b1 > 0 && c1+d1 > 0 && c1 > 0 {
		prr := (a1 / (a1 + b1)) / (c1 / (c1 + d1))
		m.PRR = &prr
		if a1 > 0 && b1 > 0 && d1 > 0 {
			se := math.Sqrt(1/a1 - 1/(a1+b1) + 1/c1 - 1/(c1+d1))
			m.PRRCI = waldInterval(prr, se)
		}
	}

	if a1 > 0 && b1 > 0 && c1 > 0 && d1 > 0 {
		ror := (a1 / b1) / (c1 / d1)
		m.ROR = &ror
		se := math.Sqrt(1/a1 + 1/b1 + 1/c1 + 1/d1)
		m.RORCI = waldInterval(ror, se)
	}

	return m
}

// waldInterval builds the 95% log-scale interval around a point estimate,
// returning nil on any domain error (non-positive estimate, NaN or
// infinite standard error or bound).
func waldInterval(estimate, se float64) *[2]float64 {
	if estimate <= 0 || math.IsNaN(se) || math.IsInf(se, 0) {
		return nil
	}
	lo := math.Exp(math.Log(estimate) - waldZ*se)
	hi := math.Exp(math.Log(estimate) + waldZ*se)
	if math.IsNaN(lo) || math.IsInf(lo, 0) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return nil
	}
	return &[2]float64{lo, hi}
}
