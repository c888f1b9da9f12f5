// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/lodestone/internal/models"
	"github.com/tomtom215/lodestone/internal/recommend"
)

// popularityPriorCount is the Bayesian prior weight for the damped
// popularity score, matching the database-backed provider so CLI and
// server recommendations agree on the same inputs.
const popularityPriorCount = 25.0

// csvDataProvider feeds the recommendation engine from ratings and
// movies loaded off CSV files, so recommend and similar work without a
// server or database.
type csvDataProvider struct {
	ratings []models.Rating
	movies  []models.Movie
}

var _ recommend.DataProvider = (*csvDataProvider)(nil)

func newCSVDataProvider(ratings []models.Rating, movies []models.Movie) *csvDataProvider {
	return &csvDataProvider{ratings: ratings, movies: movies}
}

// GetInteractions returns rating interactions for training, ordered by
// user then movie for deterministic matrix construction. A zero since
// returns everything; otherwise only ratings at or after it.
func (p *csvDataProvider) GetInteractions(_ context.Context, since time.Time) ([]recommend.Interaction, error) {
	interactions := make([]recommend.Interaction, 0, len(p.ratings))
	for _, r := range p.ratings {
		if !since.IsZero() && r.Timestamp.Before(since) {
			continue
		}
		interactions = append(interactions, recommend.Interaction{
			UserID:    r.UserID,
			ItemID:    r.MovieID,
			Rating:    r.Rating,
			Timestamp: r.Timestamp,
		})
	}
	sort.Slice(interactions, func(i, j int) bool {
		if interactions[i].UserID != interactions[j].UserID {
			return interactions[i].UserID < interactions[j].UserID
		}
		return interactions[i].ItemID < interactions[j].ItemID
	})
	return interactions, nil
}

// GetItems returns the catalog with rating aggregates joined in. The
// popularity score is a damped mean so an item with a single five-star
// rating does not outrank a well-rated popular title.
func (p *csvDataProvider) GetItems(_ context.Context) ([]recommend.Item, error) {
	type agg struct {
		sum   float64
		count int
	}
	stats := make(map[int64]*agg, len(p.movies))
	var globalSum float64
	for _, r := range p.ratings {
		a := stats[r.MovieID]
		if a == nil {
			a = &agg{}
			stats[r.MovieID] = a
		}
		a.sum += r.Rating
		a.count++
		globalSum += r.Rating
	}
	var globalMean float64
	if len(p.ratings) > 0 {
		globalMean = globalSum / float64(len(p.ratings))
	}

	items := make([]recommend.Item, 0, len(p.movies))
	for _, m := range p.movies {
		it := recommend.Item{
			ID:     m.MovieID,
			Title:  m.Title,
			Year:   m.Year,
			Genres: m.Genres,
		}
		if a := stats[m.MovieID]; a != nil && a.count > 0 {
			n := float64(a.count)
			it.MeanRating = a.sum / n
			it.NumRatings = a.count
			it.PopularityScore = (n/(n+popularityPriorCount))*it.MeanRating +
				(popularityPriorCount/(n+popularityPriorCount))*globalMean
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// GetUserHistory returns the movie identifiers the user has rated,
// ascending.
func (p *csvDataProvider) GetUserHistory(_ context.Context, userID int64) ([]int64, error) {
	var history []int64
	for _, r := range p.ratings {
		if r.UserID == userID {
			history = append(history, r.MovieID)
		}
	}
	sort.Slice(history, func(i, j int) bool { return history[i] < history[j] })
	return history, nil
}

// GetCandidates returns up to limit movie identifiers the user has not
// rated, most-rated first with identifier order breaking ties. A
// non-positive limit means no restriction and returns nil.
func (p *csvDataProvider) GetCandidates(_ context.Context, userID int64, limit int) ([]int64, error) {
	if limit <= 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	counts := make(map[int64]int)
	for _, r := range p.ratings {
		if r.UserID == userID {
			seen[r.MovieID] = struct{}{}
		}
		counts[r.MovieID]++
	}

	candidates := make([]int64, 0, len(counts))
	for id := range counts {
		if _, ok := seen[id]; !ok {
			candidates = append(candidates, id)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if counts[candidates[i]] != counts[candidates[j]] {
			return counts[candidates[i]] > counts[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
