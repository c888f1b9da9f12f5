// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package learn

import (
	"context"
	"testing"
)

func twoClusterData() ([][]float64, []string) {
	features := [][]float64{
		{0, 0}, {0, 1}, {1, 0},
		{10, 10}, {10, 11}, {11, 10},
	}
	labels := []string{"a", "a", "a", "b", "b", "b"}
	return features, labels
}

func TestKNNFitValidation(t *testing.T) {
	tests := []struct {
		name     string
		features [][]float64
		labels   []string
		metric   DistanceMetric
	}{
		{"empty", nil, nil, Euclidean},
		{"length mismatch", [][]float64{{1}}, []string{"a", "b"}, Euclidean},
		{"ragged rows", [][]float64{{1, 2}, {1}}, []string{"a", "b"}, Euclidean},
		{"unknown metric", [][]float64{{1}}, []string{"a"}, DistanceMetric("chebyshev")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewKNNClassifier(3, tt.metric)
			if err := c.Fit(tt.features, tt.labels); err == nil {
				t.Error("Fit() = nil error, want error")
			}
		})
	}
}

func TestKNNPredict(t *testing.T) {
	features, labels := twoClusterData()
	c := NewKNNClassifier(3, Euclidean)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := c.Predict(context.Background(), [][]float64{
		{0.5, 0.5},
		{10.5, 10.5},
	})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}

	if pred[0] != "a" {
		t.Errorf("pred[0] = %q, want a", pred[0])
	}
	if pred[1] != "b" {
		t.Errorf("pred[1] = %q, want b", pred[1])
	}
}

func TestKNNPredict_Manhattan(t *testing.T) {
	features, labels := twoClusterData()
	c := NewKNNClassifier(3, Manhattan)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := c.Predict(context.Background(), [][]float64{{0.4, 0.6}})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred[0] != "a" {
		t.Errorf("pred[0] = %q, want a", pred[0])
	}
}

func TestKNNPredict_Cosine(t *testing.T) {
	// Cosine distance separates by direction, not magnitude.
	features := [][]float64{
		{1, 0.1}, {1, 0.2}, {5, 0.5},
		{0.1, 1}, {0.2, 1}, {0.5, 5},
	}
	labels := []string{"x", "x", "x", "y", "y", "y"}

	c := NewKNNClassifier(3, Cosine)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := c.Predict(context.Background(), [][]float64{
		{10, 1.5}, // same direction as x despite the large magnitude
		{0.01, 0.09},
	})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred[0] != "x" {
		t.Errorf("pred[0] = %q, want x", pred[0])
	}
	if pred[1] != "y" {
		t.Errorf("pred[1] = %q, want y", pred[1])
	}
}

func TestKNNPredict_KClampsToTrainSize(t *testing.T) {
	features, labels := twoClusterData()
	c := NewKNNClassifier(99, Euclidean)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// All six points vote; the 3-3 split breaks toward the nearer
	// cluster by summed distance.
	pred, err := c.Predict(context.Background(), [][]float64{{0, 0}})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred[0] != "a" {
		t.Errorf("pred[0] = %q, want a (distance tie-break)", pred[0])
	}
}

func TestKNNPredict_DeterministicTieBreak(t *testing.T) {
	// Two equidistant neighbors with different labels: equal votes,
	// equal distance sums, lexicographic winner.
	features := [][]float64{{-1, 0}, {1, 0}}
	labels := []string{"b", "a"}

	c := NewKNNClassifier(2, Euclidean)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	pred, err := c.Predict(context.Background(), [][]float64{{0, 0}})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred[0] != "a" {
		t.Errorf("pred[0] = %q, want a (lexicographic tie-break)", pred[0])
	}
}

func TestKNNPredict_NotFitted(t *testing.T) {
	c := NewKNNClassifier(3, Euclidean)
	if _, err := c.Predict(context.Background(), [][]float64{{1, 2}}); err == nil {
		t.Error("Predict() = nil error on unfitted classifier")
	}
}

func TestKNNPredict_DimensionMismatch(t *testing.T) {
	features, labels := twoClusterData()
	c := NewKNNClassifier(3, Euclidean)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := c.Predict(context.Background(), [][]float64{{1, 2, 3}}); err == nil {
		t.Error("Predict() = nil error for wrong dimension")
	}
}

func TestKNNPredict_Cancelled(t *testing.T) {
	features, labels := twoClusterData()
	c := NewKNNClassifier(3, Euclidean)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Predict(ctx, [][]float64{{0, 0}}); err == nil {
		t.Error("Predict(cancelled) = nil error, want context error")
	}
}

func TestKNNPredictOne(t *testing.T) {
	features, labels := twoClusterData()
	c := NewKNNClassifier(1, Euclidean)
	if err := c.Fit(features, labels); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	got, err := c.PredictOne([]float64{11, 11})
	if err != nil {
		t.Fatalf("PredictOne() error = %v", err)
	}
	if got != "b" {
		t.Errorf("PredictOne() = %q, want b", got)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical direction", []float64{1, 0}, []float64{2, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineSimilarity(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("cosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}
