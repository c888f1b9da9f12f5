// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package models

import (
	"time"
)

// ScrapedMovie is one row extracted from a scraped movie listing page.
// Fields not present on the page are left at their zero value.
type ScrapedMovie struct {
	Title  string  `json:"title"`
	Year   int     `json:"year,omitempty"`
	Rating float64 `json:"rating,omitempty"`
	Votes  int64   `json:"votes,omitempty"`
	URL    string  `json:"url,omitempty"`
}

// ScrapeRun summarizes one scraping session across paginated results.
type ScrapeRun struct {
	ID           string    `json:"id"`
	SourceURL    string    `json:"source_url"`
	PagesFetched int       `json:"pages_fetched"`
	RowsFound    int       `json:"rows_found"`
	FromCache    int       `json:"from_cache"`
	Failures     int       `json:"failures"`
	StartedAt    time.Time `json:"started_at"`
	Duration     float64   `json:"duration_seconds"`
}
