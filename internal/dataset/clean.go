// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package dataset

import (
	"sort"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
	"github.com/tomtom215/lodestone/internal/models"
)

// CleanOptions controls the cleaning pass.
type CleanOptions struct {
	// MinRatingsPerItem drops all ratings of items rated fewer times
	// than this. Zero disables the popularity filter.
	MinRatingsPerItem int

	// DropUnknownMovies removes ratings whose movieId is absent from
	// the catalog. Requires a non-empty movie slice to take effect.
	DropUnknownMovies bool
}

// CleanResult carries the surviving ratings and the accounting report.
type CleanResult struct {
	Ratings []models.Rating
	Report  models.CleanReport
}

// Clean applies the hygiene pass to loaded ratings, in order: range and
// scale validation, duplicate removal keeping the latest rating per
// (user, movie) pair, optional unknown-movie removal, and the item
// popularity filter. loadStats feeds the rows-read and bad-row counts
// so the report reconciles against the raw file.
func Clean(ratings []models.Rating, movies []models.Movie, loadStats LoadStats, opts CleanOptions) CleanResult {
	start := time.Now()
	report := models.CleanReport{
		Source:        "ratings",
		RowsRead:      loadStats.RowsRead,
		MissingFields: loadStats.BadRows,
		StartedAt:     start.UTC(),
	}

	// Pass 1: range and scale validation.
	valid := make([]models.Rating, 0, len(ratings))
	for _, r := range ratings {
		if !r.Valid() {
			report.OutOfRange++
			continue
		}
		valid = append(valid, r)
	}

	// Pass 2: duplicates on (userId, movieId), keeping the latest
	// timestamp. Ties keep the later occurrence in file order.
	type pairKey struct {
		user, movie int64
	}
	latest := make(map[pairKey]int, len(valid))
	for i, r := range valid {
		key := pairKey{r.UserID, r.MovieID}
		if prev, ok := latest[key]; ok {
			report.Duplicates++
			if !valid[i].Timestamp.Before(valid[prev].Timestamp) {
				latest[key] = i
			}
			continue
		}
		latest[key] = i
	}
	deduped := make([]models.Rating, 0, len(latest))
	kept := make([]bool, len(valid))
	for _, idx := range latest {
		kept[idx] = true
	}
	for i, r := range valid {
		if kept[i] {
			deduped = append(deduped, r)
		}
	}

	// Pass 3: unknown movie references.
	if opts.DropUnknownMovies && len(movies) > 0 {
		known := make(map[int64]struct{}, len(movies))
		for _, m := range movies {
			known[m.MovieID] = struct{}{}
		}
		filtered := deduped[:0]
		for _, r := range deduped {
			if _, ok := known[r.MovieID]; !ok {
				report.UnknownMovieRef++
				continue
			}
			filtered = append(filtered, r)
		}
		deduped = filtered
	}

	// Pass 4: popularity filter. Two passes over the data: count per
	// item, then keep rows whose item clears the floor.
	if opts.MinRatingsPerItem > 0 {
		itemCounts := make(map[int64]int, 1024)
		for _, r := range deduped {
			itemCounts[r.MovieID]++
		}
		filtered := deduped[:0]
		for _, r := range deduped {
			if itemCounts[r.MovieID] < opts.MinRatingsPerItem {
				report.UnpopularItems++
				continue
			}
			filtered = append(filtered, r)
		}
		deduped = filtered
	}

	// Stable chronological order for downstream splits.
	sort.SliceStable(deduped, func(i, j int) bool {
		if !deduped[i].Timestamp.Equal(deduped[j].Timestamp) {
			return deduped[i].Timestamp.Before(deduped[j].Timestamp)
		}
		if deduped[i].UserID != deduped[j].UserID {
			return deduped[i].UserID < deduped[j].UserID
		}
		return deduped[i].MovieID < deduped[j].MovieID
	})

	report.RowsKept = len(deduped)
	report.Duration = time.Since(start).Seconds()

	metrics.RecordRejectedRecords("ratings", "missing_field", report.MissingFields)
	metrics.RecordRejectedRecords("ratings", "out_of_range", report.OutOfRange)
	metrics.RecordRejectedRecords("ratings", "duplicate", report.Duplicates)
	metrics.RecordRejectedRecords("ratings", "unknown_movie", report.UnknownMovieRef)
	metrics.RecordRejectedRecords("ratings", "unpopular_item", report.UnpopularItems)

	logging.Info().
		Int("rows_read", report.RowsRead).
		Int("rows_kept", report.RowsKept).
		Int("duplicates", report.Duplicates).
		Int("out_of_range", report.OutOfRange).
		Int("unpopular_items", report.UnpopularItems).
		Msg("Dataset cleaning completed")

	return CleanResult{Ratings: deduped, Report: report}
}
