// Nichescout - Trending Video Niche Discovery and Ranking
// Copyright 2026 Nichescout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nichescout/nichescout

// Package cluster groups embedded videos into semantic niches: L2
// normalization, PCA reduction, density clustering, stable IDs, and
// keyword labeling.
package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/nichescout/nichescout/internal/logging"
)

// Noise marks points no cluster absorbed.
const Noise = -1

// NormalizeRows scales each row to unit L2 norm. Zero rows stay zero.
func NormalizeRows(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		norm := 0.0
		for _, v := range row {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			continue
		}
		for j, v := range row {
			out.Set(i, j, v/norm)
		}
	}
	return out
}

// ReduceDimensions projects rows onto their top principal components.
// The component count is clamped to the data; on decomposition failure
// the input is returned unchanged so clustering still runs on raw
// vectors.
func ReduceDimensions(x *mat.Dense, nComponents int) *mat.Dense {
	rows, cols := x.Dims()
	if nComponents > rows-1 {
		nComponents = rows - 1
	}
	if nComponents > cols {
		nComponents = cols
	}
	if nComponents < 2 {
		return x
	}

	// Center columns before decomposition.
	centered := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		mean := 0.0
		for i := 0; i < rows; i++ {
			mean += x.At(i, j)
		}
		mean /= float64(rows)
		for i := 0; i < rows; i++ {
			centered.Set(i, j, x.At(i, j)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		logging.Warn().Msg("svd failed, clustering on raw embeddings")
		return x
	}

	var v mat.Dense
	svd.VTo(&v)

	components := v.Slice(0, cols, 0, nComponents)
	var reduced mat.Dense
	reduced.Mul(centered, components)
	return &reduced
}

// euclidean returns the distance between two rows of x.
func euclidean(x *mat.Dense, i, j int) float64 {
	_, cols := x.Dims()
	sum := 0.0
	for k := 0; k < cols; k++ {
		d := x.At(i, k) - x.At(j, k)
		sum += d * d
	}
	return math.Sqrt(sum)
}

// EstimateEps picks a density radius from the k-NN distance curve: the
// 90th percentile of each point's distance to its k-th nearest
// neighbor. Deterministic for a fixed input.
func EstimateEps(x *mat.Dense, k int) float64 {
	rows, _ := x.Dims()
	if rows < 2 {
		return 0
	}
	if k >= rows {
		k = rows - 1
	}
	if k < 1 {
		k = 1
	}

	kth := make([]float64, rows)
	dists := make([]float64, 0, rows-1)
	for i := 0; i < rows; i++ {
		dists = dists[:0]
		for j := 0; j < rows; j++ {
			if i == j {
				continue
			}
			dists = append(dists, euclidean(x, i, j))
		}
		sort.Float64s(dists)
		kth[i] = dists[k-1]
	}
	sort.Float64s(kth)

	idx := int(float64(len(kth)) * 0.9)
	if idx >= len(kth) {
		idx = len(kth) - 1
	}
	return kth[idx]
}

// DBSCAN assigns density cluster labels to the rows of x. Points with
// fewer than minPts neighbors within eps that no cluster absorbs get
// Noise. Iteration order is fixed, so labels are deterministic.
func DBSCAN(x *mat.Dense, eps float64, minPts int) []int {
	rows, _ := x.Dims()
	labels := make([]int, rows)
	for i := range labels {
		labels[i] = Noise
	}
	if rows == 0 || eps <= 0 {
		return labels
	}

	neighbors := func(p int) []int {
		var out []int
		for q := 0; q < rows; q++ {
			if q != p && euclidean(x, p, q) <= eps {
				out = append(out, q)
			}
		}
		return out
	}

	visited := make([]bool, rows)
	clusterID := 0

	for p := 0; p < rows; p++ {
		if visited[p] {
			continue
		}
		visited[p] = true

		nbrs := neighbors(p)
		// +1 counts the point itself.
		if len(nbrs)+1 < minPts {
			continue
		}

		labels[p] = clusterID
		queue := append([]int(nil), nbrs...)
		for len(queue) > 0 {
			q := queue[0]
			queue = queue[1:]

			if labels[q] == Noise {
				labels[q] = clusterID
			}
			if visited[q] {
				continue
			}
			visited[q] = true
			labels[q] = clusterID

			qNbrs := neighbors(q)
			if len(qNbrs)+1 >= minPts {
				queue = append(queue, qNbrs...)
			}
		}
		clusterID++
	}
	return labels
}
