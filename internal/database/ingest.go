// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
)

// IngestResult summarizes one bulk CSV ingest.
type IngestResult struct {
	Source       string        `json:"source"`
	RowsRead     int64         `json:"rows_read"`
	RowsInserted int64         `json:"rows_inserted"`
	Duration     time.Duration `json:"duration"`
}

// ratingsCSVColumns pins the MovieLens ratings.csv column types so
// ingest never depends on sniffing.
const ratingsCSVColumns = `columns={'userId': 'BIGINT', 'movieId': 'BIGINT', 'rating': 'DOUBLE', 'timestamp': 'BIGINT'}`

// moviesCSVColumns pins the MovieLens movies.csv column types.
const moviesCSVColumns = `columns={'movieId': 'BIGINT', 'title': 'VARCHAR', 'genres': 'VARCHAR'}`

// IngestRatingsCSV bulk-loads a MovieLens-shaped ratings CSV
// (userId,movieId,rating,timestamp) through DuckDB's read_csv. Rows
// with non-positive identifiers or ratings outside the half-star scale
// are dropped, and when the file repeats a user-movie pair only the
// newest row is kept. The returned result carries the CSV row count
// and the table delta so callers can verify the ingest.
func (db *DB) IngestRatingsCSV(ctx context.Context, path string) (*IngestResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	csvPath, err := checkCSVPath(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	source := fmt.Sprintf("read_csv('%s', header=true, %s)", csvPath, ratingsCSVColumns)

	var rowsRead int64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+source).Scan(&rowsRead); err != nil {
		return nil, fmt.Errorf("failed to read ratings csv %s: %w", path, err)
	}

	before, err := db.countTable(ctx, "ratings")
	if err != nil {
		return nil, err
	}

	insert := fmt.Sprintf(`
		INSERT OR REPLACE INTO ratings (user_id, movie_id, rating, rated_at, source)
		SELECT "userId", "movieId", "rating", to_timestamp("timestamp")::TIMESTAMP, 'csv'
		FROM %s
		WHERE "userId" > 0 AND "movieId" > 0
		  AND "rating" >= %v AND "rating" <= %v
		QUALIFY ROW_NUMBER() OVER (PARTITION BY "userId", "movieId" ORDER BY "timestamp" DESC) = 1`,
		source, models.MinRating, models.MaxRating)

	if _, err := db.conn.ExecContext(ctx, insert); err != nil {
		return nil, fmt.Errorf("failed to ingest ratings csv %s: %w", path, err)
	}

	after, err := db.countTable(ctx, "ratings")
	if err != nil {
		return nil, err
	}

	db.IncrementDataVersion()

	result := &IngestResult{
		Source:       path,
		RowsRead:     rowsRead,
		RowsInserted: after - before,
		Duration:     time.Since(start),
	}
	logging.Info().
		Str("path", path).
		Int64("rows_read", result.RowsRead).
		Int64("rows_inserted", result.RowsInserted).
		Dur("duration", result.Duration).
		Msg("Ratings CSV ingested")

	return result, nil
}

// IngestMoviesCSV bulk-loads a MovieLens-shaped movies CSV
// (movieId,title,genres). The release year is extracted from the
// trailing parenthesized year in the title, and the
// "(no genres listed)" sentinel maps to an empty genre list.
func (db *DB) IngestMoviesCSV(ctx context.Context, path string) (*IngestResult, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	csvPath, err := checkCSVPath(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	source := fmt.Sprintf("read_csv('%s', header=true, %s)", csvPath, moviesCSVColumns)

	var rowsRead int64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+source).Scan(&rowsRead); err != nil {
		return nil, fmt.Errorf("failed to read movies csv %s: %w", path, err)
	}

	before, err := db.countTable(ctx, "movies")
	if err != nil {
		return nil, err
	}

	insert := fmt.Sprintf(`
		INSERT OR REPLACE INTO movies (movie_id, title, year, genres)
		SELECT "movieId",
		       "title",
		       TRY_CAST(regexp_extract("title", '\((\d{4})\)\s*$', 1) AS INTEGER),
		       CASE WHEN "genres" IS NULL OR "genres" = '(no genres listed)' THEN '' ELSE "genres" END
		FROM %s
		WHERE "movieId" > 0 AND "title" IS NOT NULL
		QUALIFY ROW_NUMBER() OVER (PARTITION BY "movieId" ORDER BY "title") = 1`, source)

	if _, err := db.conn.ExecContext(ctx, insert); err != nil {
		return nil, fmt.Errorf("failed to ingest movies csv %s: %w", path, err)
	}

	after, err := db.countTable(ctx, "movies")
	if err != nil {
		return nil, err
	}

	db.IncrementDataVersion()

	result := &IngestResult{
		Source:       path,
		RowsRead:     rowsRead,
		RowsInserted: after - before,
		Duration:     time.Since(start),
	}
	logging.Info().
		Str("path", path).
		Int64("rows_read", result.RowsRead).
		Int64("rows_inserted", result.RowsInserted).
		Dur("duration", result.Duration).
		Msg("Movies CSV ingested")

	return result, nil
}

// InsertRating inserts or replaces a single rating event, the
// incremental path used by the API and the event consumer. The source
// label distinguishes live events from bulk ingest in the table.
func (db *DB) InsertRating(ctx context.Context, r *models.Rating, source string) error {
	if r == nil {
		return fmt.Errorf("rating is nil")
	}
	if !r.Valid() {
		return fmt.Errorf("invalid rating: user=%d movie=%d rating=%v", r.UserID, r.MovieID, r.Rating)
	}
	if source == "" {
		source = "api"
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	ratedAt := r.Timestamp
	if ratedAt.IsZero() {
		ratedAt = time.Now().UTC()
	}

	stmt, err := db.getStmt(ctx,
		`INSERT OR REPLACE INTO ratings (user_id, movie_id, rating, rated_at, source) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	if _, err := stmt.ExecContext(ctx, r.UserID, r.MovieID, r.Rating, ratedAt, source); err != nil {
		return fmt.Errorf("failed to insert rating: %w", err)
	}

	db.IncrementDataVersion()
	return nil
}

// GetRecordCounts returns row counts for the main tables, used by
// health checks and backup verification.
func (db *DB) GetRecordCounts(ctx context.Context) (ratings, movies int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if ratings, err = db.countTable(ctx, "ratings"); err != nil {
		return 0, 0, err
	}
	if movies, err = db.countTable(ctx, "movies"); err != nil {
		return ratings, 0, err
	}
	return ratings, movies, nil
}

// countTable counts rows in one of the fixed schema tables. The name
// is compile-time constant at every call site, never user input.
func (db *DB) countTable(ctx context.Context, table string) (int64, error) {
	var count int64
	//nolint:gosec // G201: table names are package constants
	if err := db.conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// checkCSVPath verifies the file exists and returns it with single
// quotes escaped for inlining into a read_csv call. The driver cannot
// bind parameters inside table functions, so the path is inlined.
func checkCSVPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("csv path is empty")
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("csv file not accessible: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("csv path %s is a directory", path)
	}
	return strings.ReplaceAll(path, "'", "''"), nil
}
