// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// popularityPriorCount is the Bayesian prior weight for the damped
// popularity score, equivalent to this many ratings at the global
// mean. Items with few ratings are pulled toward the global mean.
const popularityPriorCount = 25.0

// RecommendationDataProvider adapts the DuckDB store to the
// recommendation engine's data access interface.
type RecommendationDataProvider struct {
	db *DB
}

var _ recommend.DataProvider = (*RecommendationDataProvider)(nil)

// NewRecommendationDataProvider wraps the database for the engine.
func NewRecommendationDataProvider(db *DB) *RecommendationDataProvider {
	return &RecommendationDataProvider{db: db}
}

// GetInteractions returns rating interactions for training, ordered by
// user then movie for deterministic matrix construction. A zero since
// returns the full table; otherwise only ratings at or after it.
func (p *RecommendationDataProvider) GetInteractions(ctx context.Context, since time.Time) ([]recommend.Interaction, error) {
	ctx, cancel := p.db.ensureContext(ctx)
	defer cancel()

	query := `SELECT user_id, movie_id, rating, rated_at FROM ratings ORDER BY user_id, movie_id`
	args := []interface{}{}
	if !since.IsZero() {
		query = `SELECT user_id, movie_id, rating, rated_at FROM ratings WHERE rated_at >= ? ORDER BY user_id, movie_id`
		args = append(args, since)
	}

	rows, err := p.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer closeQuietly(rows)

	var interactions []recommend.Interaction
	for rows.Next() {
		var in recommend.Interaction
		if err := rows.Scan(&in.UserID, &in.ItemID, &in.Rating, &in.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// GetItems returns the movie catalog with rating aggregates joined in.
// The popularity score is a damped mean: items with few ratings are
// pulled toward the global mean so a single five-star rating does not
// outrank a well-rated popular title.
func (p *RecommendationDataProvider) GetItems(ctx context.Context) ([]recommend.Item, error) {
	ctx, cancel := p.db.ensureContext(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		WITH stats AS (
			SELECT movie_id, AVG(rating) AS mean_rating, COUNT(*) AS num_ratings
			FROM ratings GROUP BY movie_id
		), global AS (
			SELECT COALESCE(AVG(rating), 0) AS mean_rating FROM ratings
		)
		SELECT m.movie_id, m.title, COALESCE(m.year, 0), m.genres,
		       COALESCE(s.mean_rating, 0),
		       COALESCE(s.num_ratings, 0),
		       CASE WHEN s.num_ratings IS NULL THEN 0
		            ELSE (s.num_ratings / (s.num_ratings + %[1]v)) * s.mean_rating
		               + (%[1]v / (s.num_ratings + %[1]v)) * g.mean_rating
		       END
		FROM movies m
		LEFT JOIN stats s ON s.movie_id = m.movie_id
		CROSS JOIN global g
		ORDER BY m.movie_id`, popularityPriorCount)

	rows, err := p.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer closeQuietly(rows)

	var items []recommend.Item
	for rows.Next() {
		var it recommend.Item
		var genres string
		if err := rows.Scan(&it.ID, &it.Title, &it.Year, &genres,
			&it.MeanRating, &it.NumRatings, &it.PopularityScore); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.Genres = splitGenres(genres)
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetUserHistory returns the movie identifiers the user has rated.
func (p *RecommendationDataProvider) GetUserHistory(ctx context.Context, userID int64) ([]int64, error) {
	ctx, cancel := p.db.ensureContext(ctx)
	defer cancel()

	stmt, err := p.db.getStmt(ctx,
		`SELECT movie_id FROM ratings WHERE user_id = ? ORDER BY movie_id`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	var history []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, id)
	}
	return history, rows.Err()
}

// GetCandidates returns up to limit unseen movie identifiers for the
// user, most-rated first. A non-positive limit means no restriction
// and returns nil.
func (p *RecommendationDataProvider) GetCandidates(ctx context.Context, userID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, nil
	}

	ctx, cancel := p.db.ensureContext(ctx)
	defer cancel()

	stmt, err := p.db.getStmt(ctx, `
		SELECT r.movie_id
		FROM ratings r
		WHERE NOT EXISTS (
			SELECT 1 FROM ratings u WHERE u.user_id = ? AND u.movie_id = r.movie_id
		)
		GROUP BY r.movie_id
		ORDER BY COUNT(*) DESC, r.movie_id
		LIMIT ?`)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates for user %d: %w", userID, err)
	}
	defer closeQuietly(rows)

	var candidates []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		candidates = append(candidates, id)
	}
	return candidates, rows.Err()
}
