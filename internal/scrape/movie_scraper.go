// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
	"github.com/tomtom215/lodestone/internal/models"
)

// defaultMaxPages caps pagination when the caller passes no limit.
const defaultMaxPages = 50

// PageResult is the extraction outcome for one fetched page.
type PageResult struct {
	URL       string                `json:"url"`
	Page      int                   `json:"page"` // 1-based position in the pagination walk
	Movies    []models.ScrapedMovie `json:"movies"`
	Skipped   int                   `json:"skipped"` // malformed rows dropped on this page
	FromCache bool                  `json:"from_cache"`
}

// Result is a completed (possibly partial) scrape: the run summary
// plus the per-page rows in pagination order.
type Result struct {
	Run         models.ScrapeRun `json:"run"`
	Pages       []PageResult     `json:"pages"`
	SkippedRows int              `json:"skipped_rows"`
}

// AllMovies flattens the per-page rows in pagination order.
func (r *Result) AllMovies() []models.ScrapedMovie {
	var all []models.ScrapedMovie
	for _, p := range r.Pages {
		all = append(all, p.Movies...)
	}
	return all
}

// MovieScraper walks a paginated movie listing and extracts its rows.
// Politeness (rate limiting, circuit breaking, caching) belongs to the
// Fetcher, typically a PoliteFetcher.
type MovieScraper struct {
	fetcher  Fetcher
	maxPages int
}

// NewMovieScraper creates a scraper over the given fetcher. maxPages
// caps the pagination walk; non-positive values use the default of 50.
func NewMovieScraper(fetcher Fetcher, maxPages int) *MovieScraper {
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &MovieScraper{fetcher: fetcher, maxPages: maxPages}
}

// Scrape fetches startURL and follows next links until the listing
// ends, the page cap is reached, or the context is canceled.
//
// Failure semantics: a failure on the very first page fails the whole
// scrape. A failure on a later page ends pagination and returns the
// partial result; the run summary counts the failure. When the circuit
// breaker rejected the fetch the returned error wraps
// ErrFetchUnavailable (alongside the partial result on later pages).
// Context cancellation stops between pages and returns the partial
// result with the context's error.
func (s *MovieScraper) Scrape(ctx context.Context, startURL string) (*Result, error) {
	startURL = strings.TrimSpace(startURL)
	if startURL == "" {
		return nil, errors.New("start URL cannot be empty")
	}

	start := time.Now()
	result := &Result{
		Run: models.ScrapeRun{
			ID:        uuid.New().String(),
			SourceURL: startURL,
			StartedAt: start.UTC(),
		},
	}

	seen := make(map[string]bool)
	pageURL := startURL

	for pageNum := 1; pageURL != "" && pageNum <= s.maxPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			s.finish(result, start)
			return result, err
		}
		if seen[pageURL] {
			logging.Warn().Str("url", pageURL).Msg("Pagination loop detected, stopping")
			break
		}
		seen[pageURL] = true

		page, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			result.Run.Failures++
			if pageNum == 1 {
				return nil, fmt.Errorf("fetch first page: %w", err)
			}
			s.finish(result, start)
			if errors.Is(err, ErrFetchUnavailable) {
				return result, err
			}
			logging.Warn().Err(err).Str("url", pageURL).Int("page", pageNum).Msg("Page fetch failed, returning partial result")
			return result, nil
		}

		movies, skipped, err := ParseMovieList(page.HTML, page.URL)
		if err != nil {
			result.Run.Failures++
			logging.Warn().Err(err).Str("url", pageURL).Msg("Page extraction failed, stopping")
			break
		}

		result.Pages = append(result.Pages, PageResult{
			URL:       pageURL,
			Page:      pageNum,
			Movies:    movies,
			Skipped:   skipped,
			FromCache: page.FromCache,
		})
		result.Run.PagesFetched++
		result.Run.RowsFound += len(movies)
		result.SkippedRows += skipped
		if page.FromCache {
			result.Run.FromCache++
		}
		metrics.ScrapeRowsExtracted.Add(float64(len(movies)))

		next, err := FindNextLink(page.HTML, page.URL)
		if err != nil {
			break
		}
		pageURL = next
	}

	s.finish(result, start)
	logging.Info().
		Str("run_id", result.Run.ID).
		Str("source_url", result.Run.SourceURL).
		Int("pages", result.Run.PagesFetched).
		Int("rows", result.Run.RowsFound).
		Int("from_cache", result.Run.FromCache).
		Int("skipped_rows", result.SkippedRows).
		Msg("Scrape complete")
	return result, nil
}

func (s *MovieScraper) finish(result *Result, start time.Time) {
	result.Run.Duration = time.Since(start).Seconds()
}
