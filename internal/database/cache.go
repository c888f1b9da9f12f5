// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// getStmt returns a cached prepared statement for the query, preparing
// and caching it on first use. Double-checked locking keeps the fast
// path a read lock. Cached statements live until Close().
func (db *DB) getStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtCacheMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtCacheMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtCacheMu.Lock()
	defer db.stmtCacheMu.Unlock()

	// Another goroutine may have prepared it while we waited.
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}

// clearStatementCache closes all cached prepared statements.
func (db *DB) clearStatementCache() {
	db.stmtCacheMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			closeWithLog(stmt, "prepared statement")
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtCacheMu.Unlock()
}

// DataVersion returns the current data version counter.
func (db *DB) DataVersion() int64 {
	db.dataVersionMu.RLock()
	defer db.dataVersionMu.RUnlock()
	return db.dataVersion
}

// IncrementDataVersion bumps the data version counter. Called after
// every write that changes ratings or movies so the recommendation
// engine can detect stale models and the title matcher rebuilds.
func (db *DB) IncrementDataVersion() {
	db.dataVersionMu.Lock()
	db.dataVersion++
	db.dataVersionMu.Unlock()
}
