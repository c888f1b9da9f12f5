// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tomtom215/lodestone/internal/fuzzy"
	"github.com/tomtom215/lodestone/internal/logging"
)

const (
	defaultSearchLimit    = 10
	maxSearchLimit        = 100
	defaultSearchMinScore = 60
)

// TitleMatch is one scored result from a fuzzy title search.
type TitleMatch struct {
	MovieID int64  `json:"movie_id"`
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Score   int    `json:"score"`
}

// SearchTitles ranks movie titles against a free-text query and
// returns matches scoring at least minScore on a 0-100 scale. When the
// rapidfuzz extension is loaded the scoring runs inside DuckDB;
// otherwise an in-memory matcher over the catalog is used. Both paths
// score with the maximum of plain, token-sort, and token-set ratios,
// so results agree across them.
func (db *DB) SearchTitles(ctx context.Context, query string, minScore, limit int) ([]TitleMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if minScore <= 0 {
		minScore = defaultSearchMinScore
	}
	if minScore > 100 {
		minScore = 100
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if db.rapidfuzzAvailable {
		matches, err := db.searchTitlesRapidFuzz(ctx, query, minScore, limit)
		if err == nil {
			return matches, nil
		}
		logging.Warn().Err(err).Msg("RapidFuzz search failed, falling back to native matcher")
	}

	return db.searchTitlesNative(ctx, query, minScore, limit)
}

// searchTitlesRapidFuzz scores titles inside DuckDB using the
// rapidfuzz extension functions.
func (db *DB) searchTitlesRapidFuzz(ctx context.Context, query string, minScore, limit int) ([]TitleMatch, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT movie_id, title, COALESCE(year, 0), score
		FROM (
			SELECT movie_id, title, year,
			       GREATEST(
			           rapidfuzz_ratio(lower(title), lower(?)),
			           rapidfuzz_token_sort_ratio(lower(title), lower(?)),
			           rapidfuzz_token_set_ratio(lower(title), lower(?))
			       ) AS score
			FROM movies
		)
		WHERE score >= ?
		ORDER BY score DESC, movie_id
		LIMIT ?`, query, query, query, minScore, limit)
	if err != nil {
		return nil, fmt.Errorf("rapidfuzz title search failed: %w", err)
	}
	defer closeQuietly(rows)

	matches := []TitleMatch{}
	for rows.Next() {
		var m TitleMatch
		var score float64
		if err := rows.Scan(&m.MovieID, &m.Title, &m.Year, &score); err != nil {
			return nil, fmt.Errorf("failed to scan title match: %w", err)
		}
		m.Score = int(math.Round(score))
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// searchTitlesNative scores titles with the in-memory matcher, rebuilt
// lazily whenever the catalog has changed since the last build.
func (db *DB) searchTitlesNative(ctx context.Context, query string, minScore, limit int) ([]TitleMatch, error) {
	matcher, ids, years, err := db.ensureTitleMatcher(ctx)
	if err != nil {
		return nil, err
	}

	matches := []TitleMatch{}
	for _, c := range matcher.Match(query, minScore, limit) {
		matches = append(matches, TitleMatch{
			MovieID: ids[c.Index],
			Title:   c.Title,
			Year:    years[c.Index],
			Score:   c.Score,
		})
	}
	return matches, nil
}

// ensureTitleMatcher returns the cached title matcher with its
// parallel identifier and year slices, rebuilding it when the data
// version has moved. The matcher itself is safe for concurrent use;
// the mutex only serializes rebuilds.
func (db *DB) ensureTitleMatcher(ctx context.Context) (*fuzzy.Matcher, []int64, []int, error) {
	version := db.DataVersion()

	db.titleMatcherMu.Lock()
	defer db.titleMatcherMu.Unlock()

	if db.titleMatcher != nil && db.titleMatcherVersion == version {
		return db.titleMatcher, db.titleMatcherIDs, db.titleMatcherYears, nil
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT movie_id, title, COALESCE(year, 0) FROM movies ORDER BY movie_id`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load titles for matcher: %w", err)
	}
	defer closeQuietly(rows)

	var (
		titles []string
		ids    []int64
		years  []int
	)
	for rows.Next() {
		var id int64
		var title string
		var year int
		if err := rows.Scan(&id, &title, &year); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to scan title row: %w", err)
		}
		titles = append(titles, title)
		ids = append(ids, id)
		years = append(years, year)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, err
	}

	db.titleMatcher = fuzzy.NewMatcher(titles)
	db.titleMatcherIDs = ids
	db.titleMatcherYears = years
	db.titleMatcherVersion = version

	logging.Debug().
		Int("titles", len(titles)).
		Int64("data_version", version).
		Msg("Rebuilt in-memory title matcher")

	return db.titleMatcher, db.titleMatcherIDs, db.titleMatcherYears, nil
}
