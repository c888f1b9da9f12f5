// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"reflect"
	"testing"

	"github.com/tomtom215/lodestone/internal/learn"
)

// designFixture has two genre columns ahead of the three numeric ones,
// with the last movie unrated.
func designFixture() *learn.FeatureSet {
	return &learn.FeatureSet{
		MovieIDs: []int64{1, 2, 3},
		Names:    []string{"Action", "Comedy", "year", "mean_rating", "num_ratings"},
		X: [][]float64{
			{1, 0, 1995, 4.0, 3},
			{0, 1, 1999, 2.0, 2},
			{1, 1, 2001, 0, 0},
		},
		MeanRatings:  []float64{4.0, 2.0, 0},
		RatingCounts: []int{3, 2, 0},
		PrimaryGenre: []string{"Action", "Comedy", "Action"},
	}
}

func TestClassifyDesign_Liked(t *testing.T) {
	X, labels := classifyDesign(designFixture(), "liked", 3.5)

	// Rating-derived columns leak the target and must be dropped,
	// keeping genres and year.
	if len(X) != 3 || len(X[0]) != 3 {
		t.Fatalf("X is %dx%d, want 3x3", len(X), len(X[0]))
	}
	if !reflect.DeepEqual(X[0], []float64{1, 0, 1995}) {
		t.Errorf("X[0] = %v, want [1 0 1995]", X[0])
	}
	want := []string{"liked", "disliked", "disliked"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("labels = %v, want %v", labels, want)
	}
}

func TestClassifyDesign_PrimaryGenre(t *testing.T) {
	X, labels := classifyDesign(designFixture(), "primary_genre", 0)

	// Genre indicator columns leak the target here, so only the
	// numeric columns survive.
	if len(X[0]) != 3 {
		t.Fatalf("X[0] has %d columns, want 3", len(X[0]))
	}
	if !reflect.DeepEqual(X[0], []float64{1995, 4.0, 3}) {
		t.Errorf("X[0] = %v, want [1995 4 3]", X[0])
	}
	if labels[2] != "Action" {
		t.Errorf("labels[2] = %q, want Action", labels[2])
	}
}

func TestSortedClasses(t *testing.T) {
	got := sortedClasses(map[string]learn.ClassMetrics{
		"liked":    {},
		"disliked": {},
	})
	want := []string{"disliked", "liked"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortedClasses() = %v, want %v", got, want)
	}
}
