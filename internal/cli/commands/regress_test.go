// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"reflect"
	"testing"
)

func TestRegressDesign_MeanRating(t *testing.T) {
	X, y, names := regressDesign(designFixture(), "mean_rating")

	want := []string{"Action", "Comedy", "year", "num_ratings"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}

	// The unrated third movie carries no signal and is dropped.
	if len(X) != 2 || len(y) != 2 {
		t.Fatalf("design has %d rows and %d targets, want 2 each", len(X), len(y))
	}
	if !reflect.DeepEqual(X[0], []float64{1, 0, 1995, 3}) {
		t.Errorf("X[0] = %v, want [1 0 1995 3]", X[0])
	}
	if y[0] != 4.0 || y[1] != 2.0 {
		t.Errorf("y = %v, want [4 2]", y)
	}
}

func TestRegressDesign_NumRatings(t *testing.T) {
	X, y, names := regressDesign(designFixture(), "num_ratings")

	if names[len(names)-1] != "mean_rating" {
		t.Errorf("last feature = %q, want mean_rating kept", names[len(names)-1])
	}
	if !reflect.DeepEqual(X[0], []float64{1, 0, 1995, 4.0}) {
		t.Errorf("X[0] = %v, want [1 0 1995 4]", X[0])
	}
	if y[0] != 3 || y[1] != 2 {
		t.Errorf("y = %v, want [3 2]", y)
	}
}
