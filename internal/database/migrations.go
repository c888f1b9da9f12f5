// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Versioned schema migration support. Applied migrations are tracked
// in schema_migrations so each runs exactly once, and the history is
// queryable for debugging. The initial schema lives entirely in
// schema.go, so the migration list starts empty; it grows append-only
// once databases with real data exist.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // What this migration does
	SQL         string    // SQL statement to execute
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// getMigrations returns all versioned migrations in order.
//
// The complete current schema is created by schema.go, so nothing
// needs migrating yet. Once released databases exist, add changes
// here starting from version 1, for example:
//
//	{Version: 1, Name: "add_ratings_source_detail",
//	 Description: "Track the ingest batch an event came from",
//	 SQL: `ALTER TABLE ratings ADD COLUMN IF NOT EXISTS batch_id TEXT;`},
//
// Migrations must be append-only: never modify or remove an entry
// once users have databases with data.
func getMigrations() []Migration {
	return []Migration{}
}

// createMigrationsTable creates the migration tracking table.
func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaMigrationsTable)
	return err
}

// getAppliedMigrations returns applied migrations keyed by version.
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

// runVersionedMigrations executes only migrations that have not been
// applied yet.
func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	applied, err := db.applyMigrations(ctx, getMigrations())
	if err != nil {
		return err
	}
	if applied > 0 {
		logging.Info().Int("count", applied).Msg("Applied database migrations")
	}
	return nil
}

// applyMigrations ensures the tracking table exists and applies every
// migration not yet recorded, in order. Returns how many ran.
func (db *DB) applyMigrations(ctx context.Context, migrations []Migration) (int, error) {
	if err := db.createMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	ran := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}

		if _, err := db.conn.ExecContext(ctx, m.SQL); err != nil {
			return ran, fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
		}

		if _, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description); err != nil {
			return ran, fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}

		ran++
	}

	return ran, nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order.
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	defer rows.Close()

	var history []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}
