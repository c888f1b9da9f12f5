// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"testing"
)

// setupSearchDB seeds the catalog and forces the native matcher path
// so results do not depend on whether the rapidfuzz extension loaded
// in the test environment.
func setupSearchDB(t *testing.T) *DB {
	t.Helper()
	db := setupTestDBWithData(t)
	db.SetRapidFuzzAvailableForTesting(false)
	return db
}

func TestSearchTitles(t *testing.T) {
	db := setupSearchDB(t)
	defer db.Close()

	matches, err := db.SearchTitles(context.Background(), "toy story", 0, 0)
	checkNoError(t, err)
	checkSliceNotEmpty(t, "matches", len(matches))

	checkInt64Equal(t, "matches[0].MovieID", matches[0].MovieID, 1)
	checkStringEqual(t, "matches[0].Title", matches[0].Title, "Toy Story (1995)")
	checkIntEqual(t, "matches[0].Year", matches[0].Year, 1995)
	if matches[0].Score < defaultSearchMinScore {
		t.Errorf("matches[0].Score = %d, want at least %d", matches[0].Score, defaultSearchMinScore)
	}
}

func TestSearchTitles_Misspelling(t *testing.T) {
	db := setupSearchDB(t)
	defer db.Close()

	matches, err := db.SearchTitles(context.Background(), "toy sotry", 60, 1)
	checkNoError(t, err)
	checkSliceLen(t, "matches", len(matches), 1)
	checkInt64Equal(t, "matches[0].MovieID", matches[0].MovieID, 1)
}

func TestSearchTitles_NoMatches(t *testing.T) {
	db := setupSearchDB(t)
	defer db.Close()

	matches, err := db.SearchTitles(context.Background(), "zzzz qqqq", 80, 0)
	checkNoError(t, err)
	checkSliceEmpty(t, "matches", len(matches))
	if matches == nil {
		t.Error("matches should be an empty slice, not nil")
	}
}

func TestSearchTitles_EmptyQuery(t *testing.T) {
	db := setupSearchDB(t)
	defer db.Close()

	_, err := db.SearchTitles(context.Background(), "   ", 0, 0)
	checkError(t, err)
}

func TestSearchTitles_Limit(t *testing.T) {
	db := setupSearchDB(t)
	defer db.Close()

	// minScore 1 lets every title qualify; the limit caps the result.
	matches, err := db.SearchTitles(context.Background(), "the 1995", 1, 2)
	checkNoError(t, err)
	checkSliceNotEmpty(t, "matches", len(matches))
	if len(matches) > 2 {
		t.Errorf("len(matches) = %d, want at most 2", len(matches))
	}
}

func TestSearchTitles_MatcherRebuildsOnNewData(t *testing.T) {
	db := setupSearchDB(t)
	defer db.Close()

	ctx := context.Background()

	// Warm the matcher, then grow the catalog.
	_, err := db.SearchTitles(ctx, "toy story", 0, 0)
	checkNoError(t, err)

	_, err = db.conn.Exec(
		`INSERT INTO movies (movie_id, title, year, genres) VALUES (?, ?, ?, ?)`,
		5, "Sabrina (1995)", 1995, "Comedy|Romance")
	checkNoError(t, err)
	db.IncrementDataVersion()

	matches, err := db.SearchTitles(ctx, "sabrina", 80, 1)
	checkNoError(t, err)
	checkSliceLen(t, "matches", len(matches), 1)
	checkInt64Equal(t, "matches[0].MovieID", matches[0].MovieID, 5)
}
