// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"errors"
	"time"
)

// ErrFetchUnavailable is returned when the politeness layer rejects a
// fetch because the circuit breaker is open. Callers can distinguish a
// broken target site from a transient single-page failure.
var ErrFetchUnavailable = errors.New("fetch rejected: target temporarily unavailable")

// Page is the result of fetching one URL. HTML holds the full document
// as rendered by the fetcher; for the browser fetcher that is the DOM
// after JavaScript execution, for the HTTP fetcher the raw body.
type Page struct {
	URL       string    `json:"url"`
	HTML      string    `json:"html"`
	FetchedAt time.Time `json:"fetched_at"`

	// FromCache marks pages served from the local page cache rather
	// than the network. Never persisted with the cached entry.
	FromCache bool `json:"-"`
}

// Fetcher retrieves the HTML document at a URL. Implementations must be
// safe for use from a single goroutine; the scraper fetches pages
// sequentially to stay polite.
type Fetcher interface {
	// Fetch returns the page at the given URL. The context bounds the
	// whole retrieval including any render wait.
	Fetch(ctx context.Context, url string) (*Page, error)

	// Close releases fetcher resources. Safe to call more than once.
	Close() error
}
