// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package learn

import (
	"math"

	"github.com/tomtom215/lodestone/internal/dataset"
	"github.com/tomtom215/lodestone/internal/models"
)

// FeatureSet is a movie feature matrix assembled for the classifiers
// and the clustering unit: genre indicator columns followed by release
// year, mean rating and rating count.
type FeatureSet struct {
	MovieIDs []int64
	Names    []string
	X        [][]float64

	// MeanRatings and RatingCounts repeat the numeric columns with
	// their natural types for label derivation. Movies without ratings
	// have mean 0 and count 0.
	MeanRatings  []float64
	RatingCounts []int

	// PrimaryGenre is the first listed genre per movie, "(none)" for
	// movies without genres. Usable as a classification target.
	PrimaryGenre []string
}

// NoGenreLabel marks movies without genre tags in PrimaryGenre.
const NoGenreLabel = "(none)"

// MovieFeatures assembles the feature matrix for a catalog. Ratings
// feed the mean-rating and count columns; movies absent from the
// rating set keep zeros there.
func MovieFeatures(movies []models.Movie, ratings []models.Rating) *FeatureSet {
	gm := dataset.BuildGenreMatrix(movies)

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, r := range ratings {
		sums[r.MovieID] += r.Rating
		counts[r.MovieID]++
	}

	names := make([]string, 0, len(gm.Genres)+3)
	names = append(names, gm.Genres...)
	names = append(names, "year", "mean_rating", "num_ratings")

	fs := &FeatureSet{
		MovieIDs:     make([]int64, len(movies)),
		Names:        names,
		X:            make([][]float64, len(movies)),
		MeanRatings:  make([]float64, len(movies)),
		RatingCounts: make([]int, len(movies)),
		PrimaryGenre: make([]string, len(movies)),
	}

	for i, m := range movies {
		row := make([]float64, len(names))
		if genreRow, ok := gm.Row(m.MovieID); ok {
			copy(row, genreRow)
		}
		row[len(gm.Genres)] = float64(m.Year)

		if n := counts[m.MovieID]; n > 0 {
			mean := sums[m.MovieID] / float64(n)
			row[len(gm.Genres)+1] = mean
			row[len(gm.Genres)+2] = float64(n)
			fs.MeanRatings[i] = mean
			fs.RatingCounts[i] = n
		}

		fs.MovieIDs[i] = m.MovieID
		fs.X[i] = row
		if len(m.Genres) > 0 {
			fs.PrimaryGenre[i] = m.Genres[0]
		} else {
			fs.PrimaryGenre[i] = NoGenreLabel
		}
	}
	return fs
}

// LikedLabels classifies each movie as "liked" or "disliked" by
// whether its mean rating clears the threshold. Unrated movies are
// "disliked".
func (fs *FeatureSet) LikedLabels(threshold float64) []string {
	labels := make([]string, len(fs.MeanRatings))
	for i, mean := range fs.MeanRatings {
		if fs.RatingCounts[i] > 0 && mean >= threshold {
			labels[i] = "liked"
		} else {
			labels[i] = "disliked"
		}
	}
	return labels
}

// Standardize z-scores each column of X, returning the scaled copy
// with the per-column means and standard deviations. Zero-variance
// columns scale to zero rather than dividing by zero.
func Standardize(X [][]float64) (scaled [][]float64, means, stds []float64) {
	if len(X) == 0 {
		return nil, nil, nil
	}
	dims := len(X[0])
	means = make([]float64, dims)
	stds = make([]float64, dims)

	for _, row := range X {
		for j, v := range row {
			means[j] += v
		}
	}
	n := float64(len(X))
	for j := range means {
		means[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
	}

	scaled = make([][]float64, len(X))
	for i, row := range X {
		out := make([]float64, dims)
		for j, v := range row {
			if stds[j] > 0 {
				out[j] = (v - means[j]) / stds[j]
			}
		}
		scaled[i] = out
	}
	return scaled, means, stds
}
