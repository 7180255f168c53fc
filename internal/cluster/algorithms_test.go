// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

package cluster

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNormalizeRows(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		3, 4,
		0, 0,
		1, 0,
	})
	out := NormalizeRows(x)

	if got := math.Hypot(out.At(0, 0), out.At(0, 1)); math.Abs(got-1) > 1e-9 {
		t.Errorf("row 0 norm = %v, want 1", got)
	}
	if out.At(0, 0) != 0.6 || out.At(0, 1) != 0.8 {
		t.Errorf("row 0 = (%v, %v), want (0.6, 0.8)", out.At(0, 0), out.At(0, 1))
	}
	if out.At(1, 0) != 0 || out.At(1, 1) != 0 {
		t.Error("zero row must stay zero")
	}
}

func TestReduceDimensionsClampsComponents(t *testing.T) {
	// 4 points in 3 dims; asking for 25 components must clamp to 3.
	x := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		1, 1, 1,
	})
	out := ReduceDimensions(x, 25)
	rows, cols := out.Dims()
	if rows != 4 {
		t.Fatalf("rows = %d, want 4", rows)
	}
	if cols > 3 {
		t.Errorf("cols = %d, want at most 3", cols)
	}
}

func TestReduceDimensionsTinyInputPassesThrough(t *testing.T) {
	x := mat.NewDense(2, 5, []float64{
		1, 2, 3, 4, 5,
		5, 4, 3, 2, 1,
	})
	out := ReduceDimensions(x, 25)
	if out != x {
		t.Error("2-row input should pass through unreduced")
	}
}

func TestReduceDimensionsPreservesSeparation(t *testing.T) {
	// Two far-apart groups must stay far apart after projection.
	data := make([]float64, 0, 6*4)
	for i := 0; i < 3; i++ {
		data = append(data, 10, 10, 10, 10)
	}
	for i := 0; i < 3; i++ {
		data = append(data, -10, -10, -10, -10)
	}
	x := mat.NewDense(6, 4, data)

	out := ReduceDimensions(x, 2)
	within := euclidean(out, 0, 1)
	between := euclidean(out, 0, 3)
	if between <= within+1e-9 {
		t.Errorf("between-group distance %v not larger than within-group %v", between, within)
	}
}

func twoBlobs() *mat.Dense {
	// Two tight groups of 5 plus one far outlier.
	pts := [][]float64{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1}, {0.05, 0.05},
		{10, 10}, {10.1, 10}, {10, 10.1}, {10.1, 10.1}, {10.05, 10.05},
		{100, -100},
	}
	x := mat.NewDense(len(pts), 2, nil)
	for i, p := range pts {
		x.SetRow(i, p)
	}
	return x
}

func TestDBSCANFindsTwoClusters(t *testing.T) {
	x := twoBlobs()
	labels := DBSCAN(x, 0.5, 5)

	for i := 1; i < 5; i++ {
		if labels[i] != labels[0] {
			t.Errorf("point %d label %d, want same as point 0 (%d)", i, labels[i], labels[0])
		}
	}
	for i := 6; i < 10; i++ {
		if labels[i] != labels[5] {
			t.Errorf("point %d label %d, want same as point 5 (%d)", i, labels[i], labels[5])
		}
	}
	if labels[0] == labels[5] {
		t.Error("the two groups merged")
	}
	if labels[10] != Noise {
		t.Errorf("outlier label %d, want noise", labels[10])
	}
}

func TestDBSCANDeterministic(t *testing.T) {
	x := twoBlobs()
	a := DBSCAN(x, 0.5, 5)
	b := DBSCAN(x, 0.5, 5)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("labels differ at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestDBSCANAllNoiseUnderStrictEps(t *testing.T) {
	x := twoBlobs()
	labels := DBSCAN(x, 0.001, 5)
	for i, l := range labels {
		if l != Noise {
			t.Errorf("point %d label %d, want noise under tiny eps", i, l)
		}
	}
}

func TestEstimateEpsSeparatesBlobDensity(t *testing.T) {
	x := twoBlobs()
	eps := EstimateEps(x, 4)
	if eps <= 0 {
		t.Fatalf("eps = %v, want positive", eps)
	}
	// The estimate must keep the dense groups clusterable without
	// swallowing the whole space.
	labels := DBSCAN(x, eps, 5)
	if labels[0] == Noise || labels[5] == Noise {
		t.Errorf("estimated eps %v leaves dense points as noise", eps)
	}
}
