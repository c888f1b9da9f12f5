// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package cluster

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// twoBlobs returns eight points forming two tight squares far apart.
func twoBlobs() [][]float64 {
	return [][]float64{
		{0, 0}, {0.5, 0}, {0, 0.5}, {0.5, 0.5},
		{10, 10}, {10.5, 10}, {10, 10.5}, {10.5, 10.5},
	}
}

func TestKMeansFit(t *testing.T) {
	km := NewKMeans(KMeansConfig{K: 2, MaxIterations: 50, Tolerance: 1e-4, Seed: 42})

	result, err := km.Fit(context.Background(), twoBlobs())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if len(result.Assignments) != 8 {
		t.Fatalf("len(Assignments) = %d, want 8", len(result.Assignments))
	}
	if len(result.Centroids) != 2 {
		t.Fatalf("len(Centroids) = %d, want 2", len(result.Centroids))
	}

	first := result.Assignments[0]
	for i := 1; i < 4; i++ {
		if result.Assignments[i] != first {
			t.Errorf("Assignments[%d] = %d, want %d (same cluster as point 0)", i, result.Assignments[i], first)
		}
	}
	second := result.Assignments[4]
	if second == first {
		t.Fatalf("blobs assigned to the same cluster %d", first)
	}
	for i := 5; i < 8; i++ {
		if result.Assignments[i] != second {
			t.Errorf("Assignments[%d] = %d, want %d (same cluster as point 4)", i, result.Assignments[i], second)
		}
	}

	wantCentroids := map[int][]float64{
		first:  {0.25, 0.25},
		second: {10.25, 10.25},
	}
	for c, want := range wantCentroids {
		got := result.Centroids[c]
		for j := range want {
			if !almostEqual(got[j], want[j]) {
				t.Errorf("Centroids[%d][%d] = %v, want %v", c, j, got[j], want[j])
			}
		}
	}

	// Each point sits 0.25 away from its centroid on both axes, so
	// every squared distance is 0.125 and the total over 8 points is 1.
	if !almostEqual(result.Inertia, 1.0) {
		t.Errorf("Inertia = %v, want 1.0", result.Inertia)
	}
	if result.Iterations < 1 {
		t.Errorf("Iterations = %d, want >= 1", result.Iterations)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	X := twoBlobs()
	cfg := KMeansConfig{K: 2, Seed: 7}

	first, err := NewKMeans(cfg).Fit(context.Background(), X)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	second, err := NewKMeans(cfg).Fit(context.Background(), X)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if !reflect.DeepEqual(first.Assignments, second.Assignments) {
		t.Errorf("Assignments differ across runs with the same seed:\n%v\n%v", first.Assignments, second.Assignments)
	}
	if !reflect.DeepEqual(first.Centroids, second.Centroids) {
		t.Errorf("Centroids differ across runs with the same seed")
	}
}

func TestKMeansSingleCluster(t *testing.T) {
	X := [][]float64{{0, 0}, {2, 0}, {0, 2}, {2, 2}}

	result, err := NewKMeans(KMeansConfig{K: 1, Seed: 1}).Fit(context.Background(), X)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	for i, c := range result.Assignments {
		if c != 0 {
			t.Errorf("Assignments[%d] = %d, want 0", i, c)
		}
	}
	if !almostEqual(result.Centroids[0][0], 1) || !almostEqual(result.Centroids[0][1], 1) {
		t.Errorf("Centroids[0] = %v, want [1 1]", result.Centroids[0])
	}
	// Every point is sqrt(2) from the mean, so inertia is 4 * 2.
	if !almostEqual(result.Inertia, 8) {
		t.Errorf("Inertia = %v, want 8", result.Inertia)
	}
}

func TestKMeansKClampsToPointCount(t *testing.T) {
	X := [][]float64{{0, 0}, {5, 5}, {10, 0}}

	result, err := NewKMeans(KMeansConfig{K: 10, Seed: 3}).Fit(context.Background(), X)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if len(result.Centroids) != 3 {
		t.Fatalf("len(Centroids) = %d, want 3 (clamped to point count)", len(result.Centroids))
	}

	seen := make(map[int]bool)
	for i, c := range result.Assignments {
		if seen[c] {
			t.Errorf("cluster %d assigned to more than one point", c)
		}
		seen[c] = true
		if d := sqDist(X[i], result.Centroids[c]); !almostEqual(d, 0) {
			t.Errorf("point %d is %v from its centroid, want 0", i, d)
		}
	}
	if !almostEqual(result.Inertia, 0) {
		t.Errorf("Inertia = %v, want 0", result.Inertia)
	}
}

func TestKMeansIdenticalPointsConvergeInOneIteration(t *testing.T) {
	X := [][]float64{{2, 2}, {2, 2}, {2, 2}, {2, 2}, {2, 2}}

	result, err := NewKMeans(KMeansConfig{K: 2, MaxIterations: 50, Tolerance: 1e-4, Seed: 42}).Fit(context.Background(), X)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if result.Iterations != 1 {
		t.Errorf("Iterations = %d, want 1", result.Iterations)
	}
	if !almostEqual(result.Inertia, 0) {
		t.Errorf("Inertia = %v, want 0", result.Inertia)
	}
	for c, centroid := range result.Centroids {
		if !almostEqual(centroid[0], 2) || !almostEqual(centroid[1], 2) {
			t.Errorf("Centroids[%d] = %v, want [2 2]", c, centroid)
		}
	}
}

func TestKMeansToleranceZeroRunsAllIterations(t *testing.T) {
	X := [][]float64{{1, 1}, {1, 1}, {1, 1}}

	result, err := NewKMeans(KMeansConfig{K: 2, MaxIterations: 7, Tolerance: 0, Seed: 1}).Fit(context.Background(), X)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if result.Iterations != 7 {
		t.Errorf("Iterations = %d, want 7 (no early stop without a tolerance)", result.Iterations)
	}
}

func TestKMeansValidation(t *testing.T) {
	tests := []struct {
		name string
		X    [][]float64
	}{
		{"empty input", nil},
		{"zero-width rows", [][]float64{{}, {}}},
		{"ragged rows", [][]float64{{1, 2}, {3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKMeans(KMeansConfig{K: 2}).Fit(context.Background(), tt.X); err == nil {
				t.Error("Fit() error = nil, want error")
			}
		})
	}
}

func TestKMeansCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKMeans(KMeansConfig{K: 2}).Fit(ctx, twoBlobs())
	if err == nil {
		t.Fatal("Fit() error = nil, want context error")
	}
}

func TestNewKMeansDefaults(t *testing.T) {
	km := NewKMeans(KMeansConfig{})

	if km.config.K != 8 {
		t.Errorf("K = %d, want 8", km.config.K)
	}
	if km.config.MaxIterations != 100 {
		t.Errorf("MaxIterations = %d, want 100", km.config.MaxIterations)
	}
	if km.config.Seed != 42 {
		t.Errorf("Seed = %d, want 42", km.config.Seed)
	}
	if km.config.NumWorkers < 1 {
		t.Errorf("NumWorkers = %d, want >= 1", km.config.NumWorkers)
	}
}
