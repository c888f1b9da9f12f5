// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// maxPageBodySize limits how much of a response body is read.
// Listing pages are small; anything larger is not a page we can parse.
const maxPageBodySize = 8 << 20 // 8MB

// HTTPFetcher retrieves static pages with a plain GET request. Use it
// for listings that render server-side; JavaScript-driven pages need
// BrowserFetcher.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the configured timeout and
// User-Agent header.
func NewHTTPFetcher(cfg *config.ScrapeConfig) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves the document at the given URL. Non-2xx responses are
// errors; redirects are followed by the underlying client.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", pageURL, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.ScrapeFetchesTotal.WithLabelValues("http", "failure").Inc()
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore error - body already consumed
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.ScrapeFetchesTotal.WithLabelValues("http", "failure").Inc()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBodySize))
	if err != nil {
		metrics.ScrapeFetchesTotal.WithLabelValues("http", "failure").Inc()
		return nil, fmt.Errorf("read body of %s: %w", pageURL, err)
	}

	metrics.ScrapeFetchesTotal.WithLabelValues("http", "success").Inc()
	metrics.ScrapeFetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds())

	return &Page{
		URL:       pageURL,
		HTML:      string(body),
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Close releases client resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
