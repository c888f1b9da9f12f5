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

const (
	defaultRunListLimit = 50
	maxRunListLimit     = 500
)

// StartAnalysisRun records the start of a workbench analysis and
// returns the persisted run with its generated identifier. The params
// string must be a JSON document; empty means no parameters.
func (db *DB) StartAnalysisRun(ctx context.Context, kind, params string) (*models.AnalysisRun, error) {
	if !models.IsValidAnalysisKind(kind) {
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}
	if params == "" {
		params = "{}"
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	run := &models.AnalysisRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    models.RunStatusRunning,
		Params:    params,
		StartedAt: time.Now().UTC(),
	}

	stmt, err := db.getStmt(ctx,
		`INSERT INTO analysis_runs (id, kind, status, params, started_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	if _, err := stmt.ExecContext(ctx, run.ID, run.Kind, run.Status, run.Params, run.StartedAt); err != nil {
		return nil, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return run, nil
}

// CompleteAnalysisRun marks a run completed with its JSON result
// document and records the elapsed time.
func (db *DB) CompleteAnalysisRun(ctx context.Context, id, result string) error {
	return db.finishAnalysisRun(ctx, id, models.RunStatusCompleted, result, "")
}

// FailAnalysisRun marks a run failed with the error message.
func (db *DB) FailAnalysisRun(ctx context.Context, id, errMsg string) error {
	return db.finishAnalysisRun(ctx, id, models.RunStatusFailed, "", errMsg)
}

// finishAnalysisRun closes a run in either terminal status. Duration
// is computed in SQL against the stored start time so it stays correct
// even when the process clock moved between calls.
func (db *DB) finishAnalysisRun(ctx context.Context, id, status, result, errMsg string) error {
	if id == "" {
		return fmt.Errorf("analysis run id is empty")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	stmt, err := db.getStmt(ctx, `
		UPDATE analysis_runs
		SET status = ?,
		    result = ?,
		    error = ?,
		    completed_at = ?,
		    duration_ms = epoch_ms(?::TIMESTAMP) - epoch_ms(started_at)
		WHERE id = ?`)
	if err != nil {
		return err
	}

	res, err := stmt.ExecContext(ctx, status, nullIfEmpty(result), nullIfEmpty(errMsg), now, now, id)
	if err != nil {
		return fmt.Errorf("failed to finish analysis run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("analysis run %s not found", id)
	}
	return nil
}

// GetAnalysisRun fetches one run by identifier. Returns (nil, nil)
// when the run does not exist.
func (db *DB) GetAnalysisRun(ctx context.Context, id string) (*models.AnalysisRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.getStmt(ctx, `
		SELECT id, kind, status, params, result, error, started_at, completed_at, duration_ms
		FROM analysis_runs WHERE id = ?`)
	if err != nil {
		return nil, err
	}

	run, err := scanAnalysisRun(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis run %s: %w", id, err)
	}
	return run, nil
}

// ListAnalysisRuns returns runs newest first, optionally filtered by
// kind. An empty kind lists all kinds.
func (db *DB) ListAnalysisRuns(ctx context.Context, kind string, limit int) ([]models.AnalysisRun, error) {
	if kind != "" && !models.IsValidAnalysisKind(kind) {
		return nil, fmt.Errorf("unknown analysis kind %q", kind)
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	if limit > maxRunListLimit {
		limit = maxRunListLimit
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, kind, status, params, result, error, started_at, completed_at, duration_ms
		FROM analysis_runs`
	args := []interface{}{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer closeQuietly(rows)

	runs := []models.AnalysisRun{}
	for rows.Next() {
		run, err := scanAnalysisRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// CountAnalysisRuns returns the total number of recorded runs.
func (db *DB) CountAnalysisRuns(ctx context.Context) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return db.countTable(ctx, "analysis_runs")
}

// rowScanner covers both sql.Row and sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAnalysisRun scans the shared analysis_runs column order.
func scanAnalysisRun(row rowScanner) (*models.AnalysisRun, error) {
	var run models.AnalysisRun
	var result, errMsg sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&run.ID, &run.Kind, &run.Status, &run.Params,
		&result, &errMsg, &run.StartedAt, &completedAt, &run.DurationMS)
	if err != nil {
		return nil, err
	}
	run.Result = result.String
	run.Error = errMsg.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// nullIfEmpty maps an empty string to SQL NULL so optional text
// columns stay NULL instead of empty.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
