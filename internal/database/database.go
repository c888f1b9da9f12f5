// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/fuzzy"
	"github.com/tomtom215/lodestone/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// rapidfuzzAvailable tracks whether the rapidfuzz community
	// extension loaded; fuzzy search falls back to the native matcher
	// when it did not.
	rapidfuzzAvailable bool

	// Prepared statement caching
	stmtCache   map[string]*sql.Stmt
	stmtCacheMu sync.RWMutex

	// dataVersion increments on every write that changes ratings or
	// movies. The recommendation engine compares it against the
	// version it trained on to detect staleness, and the title
	// matcher uses it to invalidate its in-memory index.
	dataVersion   int64
	dataVersionMu sync.RWMutex

	// Native fuzzy matcher, built lazily over movie titles.
	titleMatcher        *fuzzy.Matcher
	titleMatcherIDs     []int64
	titleMatcherYears   []int
	titleMatcherVersion int64
	titleMatcherMu      sync.Mutex
}

// New creates a new database connection and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	// preserve_insertion_order=false reduces memory usage but may change
	// unordered result order. Auto-install/auto-load stay disabled so a
	// restricted network cannot hang startup; extensions are loaded
	// explicitly with their own timeouts.
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		stmtCache: make(map[string]*sql.Stmt),
	}

	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

// configureConnectionPool sets connection pool parameters: NumCPU open
// connections for parallel analytics, a small idle pool, and bounded
// lifetimes to avoid stale connections.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize loads extensions, creates tables, and runs migrations.
func (db *DB) initialize() error {
	db.installExtensions()

	if err := db.createTables(); err != nil {
		return err
	}

	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	if err := db.createIndexes(); err != nil {
		return err
	}

	// Flush the WAL so a crash before the first write never forces a
	// replay of the schema statements.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}

// Close closes the database connection and all prepared statements.
// It performs a CHECKPOINT before closing to flush the WAL to the main
// database file, keeping the next startup free of WAL replay.
func (db *DB) Close() error {
	db.clearStatementCache()

	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	return db.conn.Close()
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Conn returns the underlying SQL database connection for packages
// that need direct access, such as the event consumer.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path for backup operations.
func (db *DB) Path() string {
	return db.cfg.Path
}

// Checkpoint forces a WAL checkpoint.
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// ensureContext creates a context with a 30-second timeout if the
// caller provided none, so no query can hang indefinitely.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// closeWithLog closes a resource and logs any error. Use for cleanup
// where errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error.
// Use in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// logRollbackFailure logs a failed transaction rollback. The original
// error that triggered the rollback is what callers return.
func logRollbackFailure(err error) {
	logging.Warn().Err(err).Msg("Failed to roll back transaction")
}
