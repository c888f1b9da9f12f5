// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"math"
	"testing"

	"github.com/tomtom215/lodestone/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSummarize(t *testing.T) {
	stats := summarize([]float64{1, 2, 3, 4, 5})

	if stats.Count != 5 {
		t.Errorf("Count = %d, want 5", stats.Count)
	}
	if !almostEqual(stats.Mean, 3.0) {
		t.Errorf("Mean = %v, want 3.0", stats.Mean)
	}
	// Sample standard deviation of 1..5 is sqrt(2.5).
	if !almostEqual(stats.StdDev, math.Sqrt(2.5)) {
		t.Errorf("StdDev = %v, want %v", stats.StdDev, math.Sqrt(2.5))
	}
	if stats.Min != 1 || stats.Max != 5 {
		t.Errorf("Min/Max = %v/%v, want 1/5", stats.Min, stats.Max)
	}
	if !almostEqual(stats.Median, 3.0) {
		t.Errorf("Median = %v, want 3.0", stats.Median)
	}
	if !almostEqual(stats.P25, 2.0) {
		t.Errorf("P25 = %v, want 2.0", stats.P25)
	}
	if !almostEqual(stats.P75, 4.0) {
		t.Errorf("P75 = %v, want 4.0", stats.P75)
	}
}

func TestSummarize_SingleValue(t *testing.T) {
	stats := summarize([]float64{4.5})

	if stats.Count != 1 {
		t.Errorf("Count = %d, want 1", stats.Count)
	}
	if stats.StdDev != 0 {
		t.Errorf("StdDev = %v, want 0 for single observation", stats.StdDev)
	}
	if stats.Mean != 4.5 || stats.Median != 4.5 {
		t.Errorf("Mean/Median = %v/%v, want 4.5/4.5", stats.Mean, stats.Median)
	}
}

func TestSummarize_Empty(t *testing.T) {
	stats := summarize(nil)
	if stats.Count != 0 {
		t.Errorf("Count = %d, want 0", stats.Count)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}

	tests := []struct {
		p    float64
		want float64
	}{
		{0.0, 10},
		{0.5, 25}, // interpolated between 20 and 30
		{1.0, 40},
		{0.25, 17.5},
	}

	for _, tt := range tests {
		if got := percentile(sorted, tt.p); !almostEqual(got, tt.want) {
			t.Errorf("percentile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestDescribe(t *testing.T) {
	ratings := []models.Rating{
		rating(1, 10, 4.0, 100),
		rating(1, 20, 3.0, 300),
		rating(2, 10, 5.0, 200),
	}
	movies := []models.Movie{
		{MovieID: 10, Title: "A (2000)", Genres: []string{"Drama", "Comedy"}},
		{MovieID: 20, Title: "B (2001)", Genres: []string{"Drama"}},
	}

	stats := Describe(ratings, movies)

	if stats.NumRatings != 3 {
		t.Errorf("NumRatings = %d, want 3", stats.NumRatings)
	}
	if stats.NumUsers != 2 {
		t.Errorf("NumUsers = %d, want 2", stats.NumUsers)
	}
	if stats.NumMovies != 2 {
		t.Errorf("NumMovies = %d, want 2", stats.NumMovies)
	}

	// 3 observed of 2x2 possible cells.
	if !almostEqual(stats.Sparsity, 0.25) {
		t.Errorf("Sparsity = %v, want 0.25", stats.Sparsity)
	}

	if !almostEqual(stats.Ratings.Mean, 4.0) {
		t.Errorf("rating mean = %v, want 4.0", stats.Ratings.Mean)
	}

	if stats.GenreCounts["Drama"] != 2 {
		t.Errorf("GenreCounts[Drama] = %d, want 2", stats.GenreCounts["Drama"])
	}
	if stats.GenreCounts["Comedy"] != 1 {
		t.Errorf("GenreCounts[Comedy] = %d, want 1", stats.GenreCounts["Comedy"])
	}

	if stats.FirstRating == nil || stats.FirstRating.Unix() != 100 {
		t.Errorf("FirstRating = %v, want unix 100", stats.FirstRating)
	}
	if stats.LastRating == nil || stats.LastRating.Unix() != 300 {
		t.Errorf("LastRating = %v, want unix 300", stats.LastRating)
	}
}

func TestDescribe_Empty(t *testing.T) {
	stats := Describe(nil, nil)
	if stats.NumRatings != 0 || stats.NumUsers != 0 || stats.NumMovies != 0 {
		t.Errorf("empty describe = %+v, want zeros", stats)
	}
	if stats.FirstRating != nil || stats.LastRating != nil {
		t.Error("timestamps set for empty dataset")
	}
}

func TestDescribe_PerUserActivity(t *testing.T) {
	ratings := []models.Rating{
		rating(1, 10, 4.0, 100),
		rating(1, 20, 3.0, 200),
		rating(1, 30, 2.0, 300),
		rating(2, 10, 5.0, 400),
	}

	stats := Describe(ratings, nil)

	// User 1 rated three movies, user 2 one.
	if !almostEqual(stats.RatingsPerUser.Mean, 2.0) {
		t.Errorf("RatingsPerUser.Mean = %v, want 2.0", stats.RatingsPerUser.Mean)
	}
	if stats.RatingsPerUser.Min != 1 || stats.RatingsPerUser.Max != 3 {
		t.Errorf("RatingsPerUser Min/Max = %v/%v, want 1/3",
			stats.RatingsPerUser.Min, stats.RatingsPerUser.Max)
	}
}
