// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package models

import (
	"time"
)

// Rating bounds for the MovieLens convention: half-star increments on a
// 0.5 to 5.0 scale.
const (
	MinRating     = 0.5
	MaxRating     = 5.0
	RatingStep    = 0.5
	RatingEpsilon = 1e-9
)

// Rating represents a single user-movie rating event.
//
// Wire format follows the MovieLens ratings.csv convention:
//
//	userId,movieId,rating,timestamp
//	1,31,2.5,1260759144
type Rating struct {
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// Valid reports whether the rating value is on the half-star scale
// within [MinRating, MaxRating] and identifiers are positive.
func (r Rating) Valid() bool {
	if r.UserID <= 0 || r.MovieID <= 0 {
		return false
	}
	if r.Rating < MinRating-RatingEpsilon || r.Rating > MaxRating+RatingEpsilon {
		return false
	}
	// Check half-star increments
	steps := r.Rating / RatingStep
	return diff(steps, float64(int64(steps+0.5))) < 1e-6
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Movie represents movie metadata.
//
// Wire format follows the MovieLens movies.csv convention:
//
//	movieId,title,genres
//	1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
//
// Year is extracted from the trailing parenthesized year in the title
// when present; 0 when absent. Genres is the pipe-separated list split
// into a slice, with the "(no genres listed)" sentinel mapped to empty.
type Movie struct {
	MovieID int64    `json:"movie_id"`
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"`
	Genres  []string `json:"genres"`
}

// CleanReport summarizes a dataset cleaning pass: what was read, what
// was kept, and why rows were dropped.
type CleanReport struct {
	Source          string    `json:"source"`
	RowsRead        int       `json:"rows_read"`
	RowsKept        int       `json:"rows_kept"`
	Duplicates      int       `json:"duplicates"`
	OutOfRange      int       `json:"out_of_range"`
	MissingFields   int       `json:"missing_fields"`
	UnpopularItems  int       `json:"unpopular_items"`
	UnknownMovieRef int       `json:"unknown_movie_refs"`
	StartedAt       time.Time `json:"started_at"`
	Duration        float64   `json:"duration_seconds"`
}

// Dropped returns the total number of rows removed by cleaning.
func (c CleanReport) Dropped() int {
	return c.RowsRead - c.RowsKept
}

// ColumnStats holds descriptive statistics for a numeric column.
type ColumnStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// DatasetStats holds descriptive statistics for an ingested dataset,
// the equivalent of a describe() pass over ratings and movies.
type DatasetStats struct {
	Ratings        ColumnStats    `json:"ratings"`
	NumRatings     int            `json:"num_ratings"`
	NumUsers       int            `json:"num_users"`
	NumMovies      int            `json:"num_movies"`
	Sparsity       float64        `json:"sparsity"`
	GenreCounts    map[string]int `json:"genre_counts,omitempty"`
	RatingsPerUser ColumnStats    `json:"ratings_per_user"`
	RatingsPerItem ColumnStats    `json:"ratings_per_item"`
	FirstRating    *time.Time     `json:"first_rating,omitempty"`
	LastRating     *time.Time     `json:"last_rating,omitempty"`
}
