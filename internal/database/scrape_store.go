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
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/lodestone/internal/models"
)

// SaveScrapedMovies persists one page of scraped rows under a run,
// preserving the listing order. The whole page is written in a single
// transaction so a failed scrape never leaves a partial page behind.
func (db *DB) SaveScrapedMovies(ctx context.Context, runID, sourceURL string, page int, movies []models.ScrapedMovie) error {
	if runID == "" {
		return fmt.Errorf("scrape run id is empty")
	}
	if len(movies) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logRollbackFailure(rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scraped_pages (id, run_id, source_url, page, position, title, year, rating, votes, item_url, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare scraped page insert: %w", err)
	}
	defer closeQuietly(stmt)

	now := time.Now().UTC()
	for i, m := range movies {
		if m.Title == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			uuid.New().String(), runID, sourceURL, page, i,
			m.Title, zeroToNull(int64(m.Year)), floatToNull(m.Rating), zeroToNull(m.Votes),
			nullIfEmpty(m.URL), now)
		if err != nil {
			return fmt.Errorf("failed to insert scraped row %q: %w", m.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scraped page: %w", err)
	}
	committed = true
	return nil
}

// RecordScrapeRun inserts or updates a scrape run summary. Scrapers
// write it once at the start and replace it when the run finishes.
func (db *DB) RecordScrapeRun(ctx context.Context, run *models.ScrapeRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("scrape run is missing an id")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.getStmt(ctx, `
		INSERT OR REPLACE INTO scrape_runs
			(id, source_url, pages_fetched, rows_found, from_cache, failures, started_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	_, err = stmt.ExecContext(ctx, run.ID, run.SourceURL, run.PagesFetched,
		run.RowsFound, run.FromCache, run.Failures, startedAt, run.Duration)
	if err != nil {
		return fmt.Errorf("failed to record scrape run %s: %w", run.ID, err)
	}
	return nil
}

// ListScrapeRuns returns scrape run summaries newest first.
func (db *DB) ListScrapeRuns(ctx context.Context, limit int) ([]models.ScrapeRun, error) {
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, source_url, pages_fetched, rows_found, from_cache, failures, started_at, duration_seconds
		FROM scrape_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape runs: %w", err)
	}
	defer closeQuietly(rows)

	runs := []models.ScrapeRun{}
	for rows.Next() {
		var r models.ScrapeRun
		if err := rows.Scan(&r.ID, &r.SourceURL, &r.PagesFetched, &r.RowsFound,
			&r.FromCache, &r.Failures, &r.StartedAt, &r.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan scrape run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListScrapedMovies returns the rows captured by one run in listing
// order, page by page.
func (db *DB) ListScrapedMovies(ctx context.Context, runID string, limit int) ([]models.ScrapedMovie, error) {
	if runID == "" {
		return nil, fmt.Errorf("scrape run id is empty")
	}
	if limit <= 0 {
		limit = maxRunListLimit
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.getStmt(ctx, `
		SELECT title, COALESCE(year, 0), COALESCE(rating, 0), COALESCE(votes, 0), COALESCE(item_url, '')
		FROM scraped_pages
		WHERE run_id = ?
		ORDER BY page, position
		LIMIT ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scraped movies for run %s: %w", runID, err)
	}
	defer closeQuietly(rows)

	movies := []models.ScrapedMovie{}
	for rows.Next() {
		var m models.ScrapedMovie
		if err := rows.Scan(&m.Title, &m.Year, &m.Rating, &m.Votes, &m.URL); err != nil {
			return nil, fmt.Errorf("failed to scan scraped movie: %w", err)
		}
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// zeroToNull maps zero to SQL NULL for optional integer columns.
func zeroToNull(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

// floatToNull maps zero to SQL NULL for optional numeric columns.
func floatToNull(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
