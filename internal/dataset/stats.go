// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/lodestone/internal/models"
)

// Describe computes descriptive statistics over a rating set and
// catalog: the rating value distribution, per-user and per-item
// activity, matrix sparsity, and genre frequencies.
func Describe(ratings []models.Rating, movies []models.Movie) models.DatasetStats {
	stats := models.DatasetStats{
		NumRatings: len(ratings),
	}

	if len(ratings) == 0 {
		return stats
	}

	values := make([]float64, len(ratings))
	userCounts := make(map[int64]int)
	itemCounts := make(map[int64]int)
	var first, last time.Time

	for i, r := range ratings {
		values[i] = r.Rating
		userCounts[r.UserID]++
		itemCounts[r.MovieID]++
		if !r.Timestamp.IsZero() {
			if first.IsZero() || r.Timestamp.Before(first) {
				first = r.Timestamp
			}
			if r.Timestamp.After(last) {
				last = r.Timestamp
			}
		}
	}

	stats.Ratings = summarize(values)
	stats.NumUsers = len(userCounts)
	stats.NumMovies = len(itemCounts)

	if stats.NumUsers > 0 && stats.NumMovies > 0 {
		cells := float64(stats.NumUsers) * float64(stats.NumMovies)
		stats.Sparsity = 1.0 - float64(len(ratings))/cells
	}

	stats.RatingsPerUser = summarize(countsToValues(userCounts))
	stats.RatingsPerItem = summarize(countsToValues(itemCounts))

	if !first.IsZero() {
		stats.FirstRating = &first
	}
	if !last.IsZero() {
		stats.LastRating = &last
	}

	if len(movies) > 0 {
		stats.GenreCounts = make(map[string]int)
		for _, m := range movies {
			for _, g := range m.Genres {
				stats.GenreCounts[g]++
			}
		}
	}

	return stats
}

func countsToValues(counts map[int64]int) []float64 {
	values := make([]float64, 0, len(counts))
	for _, c := range counts {
		values = append(values, float64(c))
	}
	return values
}

// summarize computes the describe() column summary for a value slice.
func summarize(values []float64) models.ColumnStats {
	if len(values) == 0 {
		return models.ColumnStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var sqSum float64
	for _, v := range sorted {
		d := v - mean
		sqSum += d * d
	}
	// Sample standard deviation; zero for a single observation.
	var std float64
	if len(sorted) > 1 {
		std = math.Sqrt(sqSum / float64(len(sorted)-1))
	}

	return models.ColumnStats{
		Count:  len(sorted),
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		P25:    percentile(sorted, 0.25),
		Median: percentile(sorted, 0.50),
		P75:    percentile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}

// percentile computes the p-th percentile of sorted values using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
