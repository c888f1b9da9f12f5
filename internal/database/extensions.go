// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
)

// extensionTimeout bounds INSTALL and LOAD, which download over the
// network when the extension is not cached locally.
const extensionTimeout = 30 * time.Second

// installExtensions loads optional DuckDB extensions. Every extension
// here is optional: failure flips its availability flag and the
// affected feature degrades to its native fallback, so an air-gapped
// deployment still starts.
func (db *DB) installExtensions() {
	db.rapidfuzzAvailable = db.installCommunityExtension("rapidfuzz", "SELECT rapidfuzz_ratio('abc', 'abd')")
	if !db.rapidfuzzAvailable {
		logging.Info().Msg("rapidfuzz extension unavailable, fuzzy search uses the native matcher")
	}
}

// installCommunityExtension installs and loads a community extension,
// then verifies it with a probe query. Returns whether the extension
// is usable.
func (db *DB) installCommunityExtension(name, verifyQuery string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), extensionTimeout)
	defer cancel()

	// Already loaded from a previous connection in this process.
	if db.isExtensionLoaded(ctx, name) && db.verifyExtension(ctx, verifyQuery) {
		return true
	}

	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("INSTALL %s FROM community;", name)); err != nil {
		logging.Debug().Str("extension", name).Err(err).Msg("Extension install failed")
		// LOAD below may still succeed if a prior install left it cached.
	}

	if _, err := db.conn.ExecContext(ctx, fmt.Sprintf("LOAD %s;", name)); err != nil {
		logging.Debug().Str("extension", name).Err(err).Msg("Extension load failed")
		return false
	}

	return db.verifyExtension(ctx, verifyQuery)
}

// isExtensionLoaded checks the extension registry for a loaded entry.
func (db *DB) isExtensionLoaded(ctx context.Context, name string) bool {
	var loaded bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT loaded FROM duckdb_extensions() WHERE extension_name = ?", name).Scan(&loaded)
	return err == nil && loaded
}

// verifyExtension runs a probe query to confirm the extension's
// functions actually resolve.
func (db *DB) verifyExtension(ctx context.Context, verifyQuery string) bool {
	if verifyQuery == "" {
		return true
	}
	var discard interface{}
	if err := db.conn.QueryRowContext(ctx, verifyQuery).Scan(&discard); err != nil {
		logging.Debug().Err(err).Msg("Extension verification query failed")
		return false
	}
	return true
}

// IsRapidFuzzAvailable returns whether the rapidfuzz extension loaded.
func (db *DB) IsRapidFuzzAvailable() bool {
	return db.rapidfuzzAvailable
}

// SetRapidFuzzAvailableForTesting overrides the rapidfuzz availability
// flag so tests can exercise both search paths without the extension.
func (db *DB) SetRapidFuzzAvailableForTesting(available bool) {
	db.rapidfuzzAvailable = available
}
