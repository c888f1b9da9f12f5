// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// KMeansConfig contains configuration for the k-means algorithm.
type KMeansConfig struct {
	// K is the number of clusters. Clamped to the number of points
	// when the input is smaller than K.
	K int

	// MaxIterations caps the number of Lloyd iterations.
	MaxIterations int

	// Tolerance is the convergence threshold: the run stops once no
	// centroid moves further than this between rounds. Zero disables
	// the check and always runs MaxIterations rounds.
	Tolerance float64

	// Seed for reproducible initialization.
	// If 0, uses a default seed.
	Seed int64

	// NumWorkers is the number of parallel workers for the assignment
	// step. If <= 0, defaults to runtime.NumCPU().
	NumWorkers int
}

// DefaultKMeansConfig returns default k-means configuration.
func DefaultKMeansConfig() KMeansConfig {
	return KMeansConfig{
		K:             8,
		MaxIterations: 100,
		Tolerance:     1e-4,
		Seed:          42,
	}
}

// Result holds the outcome of a clustering run.
type Result struct {
	// Assignments maps each input row to the index of its cluster.
	Assignments []int `json:"assignments"`

	// Centroids holds the final cluster centers.
	Centroids [][]float64 `json:"centroids"`

	// Inertia is the sum of squared distances from every point to its
	// assigned centroid. Lower is tighter.
	Inertia float64 `json:"inertia"`

	// Iterations is the number of Lloyd rounds performed.
	Iterations int `json:"iterations"`
}

// KMeans partitions points into K clusters using Lloyd's algorithm
// with k-means++ seeding.
type KMeans struct {
	config KMeansConfig
}

// NewKMeans creates a k-means runner with the given configuration.
func NewKMeans(cfg KMeansConfig) *KMeans {
	if cfg.K <= 0 {
		cfg.K = 8
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 100
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = runtime.NumCPU()
	}
	return &KMeans{config: cfg}
}

// Fit clusters the rows of X and returns the final assignments,
// centroids, inertia, and iteration count.
func (km *KMeans) Fit(ctx context.Context, X [][]float64) (*Result, error) {
	n := len(X)
	if n == 0 {
		return nil, fmt.Errorf("kmeans: no points to cluster")
	}
	dims := len(X[0])
	if dims == 0 {
		return nil, fmt.Errorf("kmeans: points have no features")
	}
	for i, row := range X {
		if len(row) != dims {
			return nil, fmt.Errorf("kmeans: point %d has %d features, want %d", i, len(row), dims)
		}
	}

	k := km.config.K
	if k > n {
		k = n
	}

	//nolint:gosec // G404: math/rand is acceptable for clustering initialization (not security)
	rng := rand.New(rand.NewSource(km.config.Seed))

	centroids := seedCentroids(X, k, rng)
	assignments := make([]int, n)
	dists := make([]float64, n)

	iterations := 0
	for iter := 0; iter < km.config.MaxIterations; iter++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		iterations = iter + 1

		km.assign(X, centroids, assignments, dists)
		next := recompute(X, assignments, dists, k, dims)

		shift := maxCentroidShift(centroids, next)
		centroids = next

		if km.config.Tolerance > 0 && shift <= km.config.Tolerance {
			break
		}
	}

	// Re-assign against the final centroids so assignments and inertia
	// match the centroids being returned.
	km.assign(X, centroids, assignments, dists)

	inertia := 0.0
	for _, d := range dists {
		inertia += d
	}

	return &Result{
		Assignments: assignments,
		Centroids:   centroids,
		Inertia:     inertia,
		Iterations:  iterations,
	}, nil
}

// assign maps every point to its nearest centroid, recording the
// squared distance. Points are split into contiguous chunks and
// processed in parallel.
func (km *KMeans) assign(X, centroids [][]float64, assignments []int, dists []float64) {
	n := len(X)
	workers := km.config.NumWorkers
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				best := 0
				bestDist := math.MaxFloat64
				for c := range centroids {
					if d := sqDist(X[i], centroids[c]); d < bestDist {
						best = c
						bestDist = d
					}
				}
				assignments[i] = best
				dists[i] = bestDist
			}
		}(start, end)
	}

	wg.Wait()
}

// recompute derives the next round's centroids as per-cluster means.
// A cluster that lost all of its points is reseeded at the point
// currently farthest from its assigned centroid, so the next round
// can rebalance instead of carrying a dead center.
func recompute(X [][]float64, assignments []int, dists []float64, k, dims int) [][]float64 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dims)
	}

	for i, c := range assignments {
		counts[c]++
		for j, v := range X[i] {
			sums[c][j] += v
		}
	}

	next := make([][]float64, k)
	var used map[int]bool

	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			if used == nil {
				used = make(map[int]bool)
			}
			far := farthestPoint(dists, used)
			used[far] = true
			next[c] = cloneRow(X[far])
			continue
		}

		next[c] = make([]float64, dims)
		for j := 0; j < dims; j++ {
			next[c][j] = sums[c][j] / float64(counts[c])
		}
	}

	return next
}

// farthestPoint returns the index with the largest recorded distance,
// skipping points already claimed by another empty cluster.
func farthestPoint(dists []float64, used map[int]bool) int {
	far := 0
	farDist := -1.0
	for i, d := range dists {
		if used[i] {
			continue
		}
		if d > farDist {
			far = i
			farDist = d
		}
	}
	return far
}

// seedCentroids picks the initial centers with the k-means++ scheme:
// the first center uniformly at random, each subsequent center with
// probability proportional to its squared distance from the nearest
// already-chosen center.
func seedCentroids(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(X)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneRow(X[rng.Intn(n)]))

	d2 := make([]float64, n)
	for i := range X {
		d2[i] = sqDist(X[i], centroids[0])
	}

	for len(centroids) < k {
		total := 0.0
		for _, d := range d2 {
			total += d
		}

		var next int
		if total == 0 {
			// Every remaining point duplicates a chosen center, so the
			// weighted draw has nothing to weight. Pick uniformly.
			next = rng.Intn(n)
		} else {
			r := rng.Float64() * total
			cum := 0.0
			next = n - 1
			for i, d := range d2 {
				cum += d
				if cum >= r {
					next = i
					break
				}
			}
		}

		center := cloneRow(X[next])
		centroids = append(centroids, center)

		for i := range X {
			if d := sqDist(X[i], center); d < d2[i] {
				d2[i] = d
			}
		}
	}

	return centroids
}

// maxCentroidShift returns the largest euclidean distance any centroid
// moved between two rounds.
func maxCentroidShift(old, next [][]float64) float64 {
	shift := 0.0
	for c := range old {
		if d := math.Sqrt(sqDist(old[c], next[c])); d > shift {
			shift = d
		}
	}
	return shift
}

func sqDist(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}
