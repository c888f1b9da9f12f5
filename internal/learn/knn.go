// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package learn

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
)

// DistanceMetric selects the distance function for KNN.
type DistanceMetric string

// Supported distance metrics.
const (
	Euclidean DistanceMetric = "euclidean"
	Manhattan DistanceMetric = "manhattan"
	Cosine    DistanceMetric = "cosine"
)

// KNNClassifier is a k-nearest-neighbor classifier with majority
// voting. Fit stores the training data; Predict is parallel across
// query rows and safe for concurrent use after Fit.
type KNNClassifier struct {
	// K is the neighborhood size. Values larger than the training set
	// clamp to its size.
	K int

	// Metric is the distance function, Euclidean when empty.
	Metric DistanceMetric

	// NumWorkers parallelizes prediction. Zero or negative uses all
	// CPUs.
	NumWorkers int

	features [][]float64
	labels   []string
	dims     int
}

// NewKNNClassifier returns a classifier with the given neighborhood
// size and metric.
func NewKNNClassifier(k int, metric DistanceMetric) *KNNClassifier {
	if k < 1 {
		k = 5
	}
	if metric == "" {
		metric = Euclidean
	}
	return &KNNClassifier{K: k, Metric: metric}
}

// Fit stores the training matrix. Rows must be non-empty and share one
// dimension, with one label per row.
func (c *KNNClassifier) Fit(features [][]float64, labels []string) error {
	if len(features) == 0 {
		return fmt.Errorf("training set is empty")
	}
	if len(features) != len(labels) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ", len(features), len(labels))
	}
	dims := len(features[0])
	for i, row := range features {
		if len(row) != dims {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), dims)
		}
	}

	switch c.Metric {
	case Euclidean, Manhattan, Cosine:
	default:
		return fmt.Errorf("unknown distance metric %q", c.Metric)
	}

	c.features = features
	c.labels = labels
	c.dims = dims
	return nil
}

// Predict classifies each query row by majority vote among the K
// nearest training rows. Vote ties break toward the label with the
// smaller summed distance, then lexicographically.
func (c *KNNClassifier) Predict(ctx context.Context, queries [][]float64) ([]string, error) {
	if c.features == nil {
		return nil, fmt.Errorf("classifier is not fitted")
	}
	for i, q := range queries {
		if len(q) != c.dims {
			return nil, fmt.Errorf("query row %d has %d features, want %d", i, len(q), c.dims)
		}
	}

	workers := c.NumWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(queries) {
		workers = len(queries)
	}
	if workers < 1 {
		workers = 1
	}

	out := make([]string, len(queries))
	chunkSize := (len(queries) + workers - 1) / workers
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(queries) {
			end = len(queries)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				if ctx.Err() != nil {
					return
				}
				out[i] = c.predictOne(queries[i])
			}
		}(start, end)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// PredictOne classifies a single feature vector.
func (c *KNNClassifier) PredictOne(x []float64) (string, error) {
	if c.features == nil {
		return "", fmt.Errorf("classifier is not fitted")
	}
	if len(x) != c.dims {
		return "", fmt.Errorf("query has %d features, want %d", len(x), c.dims)
	}
	return c.predictOne(x), nil
}

type neighbor struct {
	dist  float64
	index int
}

func (c *KNNClassifier) predictOne(x []float64) string {
	neighbors := make([]neighbor, len(c.features))
	for i, row := range c.features {
		neighbors[i] = neighbor{dist: c.distance(x, row), index: i}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].dist != neighbors[j].dist {
			return neighbors[i].dist < neighbors[j].dist
		}
		return neighbors[i].index < neighbors[j].index
	})

	k := c.K
	if k > len(neighbors) {
		k = len(neighbors)
	}

	votes := make(map[string]int)
	distSum := make(map[string]float64)
	for _, n := range neighbors[:k] {
		label := c.labels[n.index]
		votes[label]++
		distSum[label] += n.dist
	}

	best := ""
	for label, count := range votes {
		if best == "" {
			best = label
			continue
		}
		switch {
		case count > votes[best]:
			best = label
		case count == votes[best] && distSum[label] < distSum[best]:
			best = label
		case count == votes[best] && distSum[label] == distSum[best] && label < best:
			best = label
		}
	}
	return best
}

func (c *KNNClassifier) distance(a, b []float64) float64 {
	switch c.Metric {
	case Manhattan:
		var sum float64
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	case Cosine:
		return 1 - cosineSimilarity(a, b)
	default:
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	}
}

// cosineSimilarity returns the cosine of the angle between two dense
// vectors, zero when either has zero norm.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
