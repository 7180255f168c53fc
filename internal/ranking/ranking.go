// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package ranking aggregates member scores into cluster-level metrics
// and the opportunity score.
package ranking

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// referenceSubs normalizes the competition factor: a niche of
// 100k-subscriber channels has competition 1.0.
const referenceSubs = 100_000

// MedianVelocity returns the median of the non-nil velocities, or nil
// when none are present.
func MedianVelocity(velocities []*float64) *float64 {
	var vals []float64
	for _, v := range velocities {
		if v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)
	// LinInterp matches the usual interpolating median: the mean of the
	// two middle values for even counts.
	m := stat.Quantile(0.5, stat.LinInterp, vals, nil)
	return &m
}

// AvgSubscribers returns the mean of the non-nil subscriber counts, or
// nil when none are present.
func AvgSubscribers(counts []*int64) *float64 {
	var vals []float64
	for _, c := range counts {
		if c != nil {
			vals = append(vals, float64(*c))
		}
	}
	if len(vals) == 0 {
		return nil
	}
	m := stat.Mean(vals, nil)
	return &m
}

// WinnerConcentration computes a Gini coefficient over member view
// counts, clamped to [0,1]. Zero for fewer than two members or an
// all-zero total: such clusters carry no concentration signal.
func WinnerConcentration(viewCounts []int64) float64 {
	if len(viewCounts) < 2 {
		return 0
	}

	sorted := make([]float64, len(viewCounts))
	for i, v := range viewCounts {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	n := float64(len(sorted))
	total := 0.0
	cumsumTotal := 0.0
	running := 0.0
	for _, v := range sorted {
		running += v
		cumsumTotal += running
		total += v
	}
	if total == 0 {
		return 0
	}

	gini := (n + 1 - 2*cumsumTotal/total) / n
	if gini < 0 {
		return 0
	}
	if gini > 1 {
		return 1
	}
	return gini
}

// OpportunityScore scores demand against competition: median velocity
// divided by channel size and winner concentration factors. Missing
// avg subscribers assume the reference size; missing concentration
// assumes 0.5. Returns nil when median velocity is nil, and the bare
// median if the denominator collapses to zero.
func OpportunityScore(medianVelocity, avgSubs *float64, concentration *float64) *float64 {
	if medianVelocity == nil {
		return nil
	}

	competition := 1.0
	if avgSubs != nil {
		competition = *avgSubs / referenceSubs
	}
	concFactor := 1.5
	if concentration != nil {
		concFactor = 1 + *concentration
	}

	denom := competition * concFactor
	if denom <= 0 {
		v := *medianVelocity
		return &v
	}
	score := *medianVelocity / denom
	return &score
}
