// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/lodestone/internal/models"
)

// RatingBucket is one bar of the rating value histogram.
type RatingBucket struct {
	Rating float64 `json:"rating"`
	Count  int64   `json:"count"`
}

// GetDatasetStats computes descriptive statistics over the ingested
// dataset in SQL, matching the in-memory describe pass in the dataset
// package: rating value distribution, matrix shape and sparsity,
// per-user and per-item activity, and genre frequencies.
func (db *DB) GetDatasetStats(ctx context.Context) (*models.DatasetStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stats := &models.DatasetStats{}

	var first, last sql.NullTime
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT user_id),
		       COUNT(DISTINCT movie_id),
		       MIN(rated_at),
		       MAX(rated_at)
		FROM ratings`).Scan(&stats.NumRatings, &stats.NumUsers, &stats.NumMovies, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to query dataset shape: %w", err)
	}
	if first.Valid {
		t := first.Time
		stats.FirstRating = &t
	}
	if last.Valid {
		t := last.Time
		stats.LastRating = &t
	}
	if stats.NumUsers > 0 && stats.NumMovies > 0 {
		cells := float64(stats.NumUsers) * float64(stats.NumMovies)
		stats.Sparsity = 1.0 - float64(stats.NumRatings)/cells
	}

	if stats.Ratings, err = db.columnStats(ctx, "SELECT rating FROM ratings"); err != nil {
		return nil, err
	}
	if stats.RatingsPerUser, err = db.columnStats(ctx,
		"SELECT COUNT(*)::DOUBLE FROM ratings GROUP BY user_id"); err != nil {
		return nil, err
	}
	if stats.RatingsPerItem, err = db.columnStats(ctx,
		"SELECT COUNT(*)::DOUBLE FROM ratings GROUP BY movie_id"); err != nil {
		return nil, err
	}

	genres, err := db.genreCounts(ctx)
	if err != nil {
		return nil, err
	}
	stats.GenreCounts = genres

	return stats, nil
}

// columnStats runs the shared eight-number summary over a one-column
// inner query. Inner queries are package constants, never user input.
func (db *DB) columnStats(ctx context.Context, inner string) (models.ColumnStats, error) {
	var cs models.ColumnStats
	//nolint:gosec // G201: inner queries are package constants
	query := fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(AVG(x), 0),
		       COALESCE(STDDEV(x), 0),
		       COALESCE(MIN(x), 0),
		       COALESCE(PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY x), 0),
		       COALESCE(PERCENTILE_CONT(0.50) WITHIN GROUP (ORDER BY x), 0),
		       COALESCE(PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY x), 0),
		       COALESCE(MAX(x), 0)
		FROM (%s) t(x)`, inner)

	err := db.conn.QueryRowContext(ctx, query).Scan(
		&cs.Count, &cs.Mean, &cs.StdDev, &cs.Min, &cs.P25, &cs.Median, &cs.P75, &cs.Max)
	if err != nil {
		return models.ColumnStats{}, fmt.Errorf("failed to compute column stats: %w", err)
	}
	return cs, nil
}

// genreCounts counts movies per genre by unnesting the pipe-separated
// genre column. Returns nil when the catalog is empty.
func (db *DB) genreCounts(ctx context.Context) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT genre, COUNT(*)
		FROM (SELECT unnest(string_split(genres, '|')) AS genre FROM movies WHERE genres <> '')
		GROUP BY genre`)
	if err != nil {
		return nil, fmt.Errorf("failed to count genres: %w", err)
	}
	defer closeQuietly(rows)

	var counts map[string]int
	for rows.Next() {
		var genre string
		var n int
		if err := rows.Scan(&genre, &n); err != nil {
			return nil, fmt.Errorf("failed to scan genre count: %w", err)
		}
		if counts == nil {
			counts = make(map[string]int)
		}
		counts[genre] = n
	}
	return counts, rows.Err()
}

// GetRatingHistogram returns rating value frequencies on the half-star
// scale, ordered by rating value.
func (db *DB) GetRatingHistogram(ctx context.Context) ([]RatingBucket, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT rating, COUNT(*) FROM ratings GROUP BY rating ORDER BY rating`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating histogram: %w", err)
	}
	defer closeQuietly(rows)

	var buckets []RatingBucket
	for rows.Next() {
		var b RatingBucket
		if err := rows.Scan(&b.Rating, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan rating bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// GetRatings loads the full ratings table ordered by user then movie,
// the deterministic input order the analysis packages expect.
func (db *DB) GetRatings(ctx context.Context) ([]models.Rating, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, movie_id, rating, rated_at FROM ratings ORDER BY user_id, movie_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer closeQuietly(rows)

	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Rating, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// GetMovies loads the full movie catalog ordered by identifier.
func (db *DB) GetMovies(ctx context.Context) ([]models.Movie, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT movie_id, title, COALESCE(year, 0), genres FROM movies ORDER BY movie_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer closeQuietly(rows)

	var movies []models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// GetMovie fetches a single movie by identifier. Returns (nil, nil)
// when the movie does not exist.
func (db *DB) GetMovie(ctx context.Context, movieID int64) (*models.Movie, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.getStmt(ctx,
		`SELECT movie_id, title, COALESCE(year, 0), genres FROM movies WHERE movie_id = ?`)
	if err != nil {
		return nil, err
	}

	var m models.Movie
	var genres string
	err = stmt.QueryRowContext(ctx, movieID).Scan(&m.MovieID, &m.Title, &m.Year, &genres)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query movie %d: %w", movieID, err)
	}
	m.Genres = splitGenres(genres)
	return &m, nil
}

// GetUserRatings fetches one user's ratings ordered newest first.
// Returns an empty slice for unknown users.
func (db *DB) GetUserRatings(ctx context.Context, userID int64) ([]models.Rating, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.getStmt(ctx,
		`SELECT user_id, movie_id, rating, rated_at FROM ratings WHERE user_id = ? ORDER BY rated_at DESC, movie_id`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.MovieID, &r.Rating, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// scanMovie scans the shared movie column order from a row set.
func scanMovie(rows *sql.Rows) (models.Movie, error) {
	var m models.Movie
	var genres string
	if err := rows.Scan(&m.MovieID, &m.Title, &m.Year, &genres); err != nil {
		return models.Movie{}, fmt.Errorf("failed to scan movie: %w", err)
	}
	m.Genres = splitGenres(genres)
	return m, nil
}

// splitGenres converts the stored pipe-separated genre column into a
// slice, nil for the empty string.
func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}
