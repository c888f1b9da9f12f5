// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
schema.go - Database Schema Management

Tables:
  - ratings: User-movie rating events (MovieLens ratings.csv shape plus
    a source column distinguishing bulk ingest from live events)
  - movies: Movie metadata with the release year extracted from the
    title and genres kept pipe-separated as in the source CSV
  - scraped_pages: Rows extracted from scraped movie listing pages,
    one row per listed title
  - scrape_runs: Summary of each scraping session
  - analysis_runs: Persisted record of every workbench analysis

Index Strategy:
Indexes cover the columns the analytic queries filter and join on:
movie lookups from ratings, time-windowed training queries, per-run
scrape rows, and the run-history listing.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		// One rating per user-movie pair; live events replace the
		// previous value via INSERT OR REPLACE.
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id BIGINT NOT NULL,
			movie_id BIGINT NOT NULL,
			rating DOUBLE NOT NULL,
			rated_at TIMESTAMP NOT NULL,
			source TEXT NOT NULL DEFAULT 'csv',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, movie_id)
		)`,

		// Genres stay pipe-separated as in the source CSV; queries
		// split them with string_split when aggregating.
		`CREATE TABLE IF NOT EXISTS movies (
			movie_id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			year INTEGER,
			genres TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Position preserves the listing order within a page, which is
		// meaningful for ranked listings.
		`CREATE TABLE IF NOT EXISTS scraped_pages (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			source_url TEXT NOT NULL,
			page INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			year INTEGER,
			rating DOUBLE,
			votes BIGINT,
			item_url TEXT,
			scraped_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS scrape_runs (
			id TEXT PRIMARY KEY,
			source_url TEXT NOT NULL,
			pages_fetched INTEGER NOT NULL DEFAULT 0,
			rows_found INTEGER NOT NULL DEFAULT 0,
			from_cache INTEGER NOT NULL DEFAULT 0,
			failures INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			duration_seconds DOUBLE NOT NULL DEFAULT 0
		)`,

		// Params and result are JSON documents whose shape depends on
		// the analysis kind.
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			result TEXT,
			error TEXT,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			duration_ms BIGINT NOT NULL DEFAULT 0
		)`,
	}
}

// createIndexes creates indexes for common query patterns.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_ratings_movie ON ratings(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_rated_at ON ratings(rated_at)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title)`,
		`CREATE INDEX IF NOT EXISTS idx_scraped_pages_run ON scraped_pages(run_id, page, position)`,
		`CREATE INDEX IF NOT EXISTS idx_scrape_runs_started ON scrape_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_runs_kind ON analysis_runs(kind, started_at)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
