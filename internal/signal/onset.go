// VaxSignal - Vaccine Adverse Event Signal Detection
// Copyright 2026 OpenVigil contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openvigil/vaxsignal

package signal

import "github.com/openvigil/vaxsignal/internal/models"

const (
	defaultOnsetBuckets = 12
	defaultClipMaxDays  = 60
)

// onsetStats summarizes min/max/avg over all observed day values,
// including negatives and values beyond the clip boundary.
func onsetStats(days []int64) models.OnsetStats {
	if len(days) == 0 {
		return models.OnsetStats{}
	}

	minDay, maxDay := days[0], days[0]
	var sum int64
	for _, d := range days {
		if d < minDay {
			minDay = d
		}
		if d > maxDay {
			maxDay = d
		}
		sum += d
	}
	avg := float64(sum) / float64(len(days))
	return models.OnsetStats{Min: &minDay, Max: &maxDay, Avg: &avg}
}

// onsetBuckets builds an equal-width histogram over [0, clipMaxDays].
// Observations outside the range are excluded from the buckets only; the
// caller reports them through Obs and the stats. Bucket bounds are
// inclusive on both ends, with widths rounded up so the last bucket may
// extend past clipMaxDays.
func onsetBuckets(days []int64, buckets, clipMaxDays int) []models.OnsetBucket {
	if buckets <= 0 {
		buckets = defaultOnsetBuckets
	}
	if clipMaxDays <= 0 {
		clipMaxDays = defaultClipMaxDays
	}

	width := (int64(clipMaxDays) + int64(buckets)) / int64(buckets) // ceil((clip+1)/buckets)
	if width < 1 {
		width = 1
	}

	out := make([]models.OnsetBucket, buckets)
	for i := range out {
		lo := int64(i) * width
		out[i] = models.OnsetBucket{Lo: lo, Hi: lo + width - 1}
	}

	for _, d := range days {
		if d < 0 || d > int64(clipMaxDays) {
			continue
		}
		idx := d / width
		if idx >= int64(buckets) {
			idx = int64(buckets) - 1
		}
		out[idx].N++
	}
	return out
}
