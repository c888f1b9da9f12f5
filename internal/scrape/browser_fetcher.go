// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// BrowserFetcher retrieves pages through a headless Chrome instance so
// JavaScript-rendered listings can be scraped. The browser is launched
// once and reused; every Fetch opens a fresh tab so a wedged page never
// poisons later fetches.
type BrowserFetcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration

	closeOnce sync.Once
}

// NewBrowserFetcher prepares a Chrome exec allocator. The browser
// process itself starts lazily on the first Fetch.
func NewBrowserFetcher(cfg *config.ScrapeConfig) *BrowserFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts, chromedp.Flag("headless", cfg.Headless))
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		timeout:     timeout,
	}
}

// Fetch navigates to the URL, waits for the document body, and returns
// the rendered DOM serialized back to HTML. The caller's context
// cancels an in-flight navigation.
func (f *BrowserFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, f.timeout)
	defer cancelRun()

	// chromedp contexts derive from the allocator, not the caller, so
	// cancellation is bridged by hand.
	go func() {
		select {
		case <-ctx.Done():
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		metrics.ScrapeFetchesTotal.WithLabelValues("browser", "failure").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("render %s: %w", pageURL, err)
	}

	metrics.ScrapeFetchesTotal.WithLabelValues("browser", "success").Inc()
	metrics.ScrapeFetchDuration.WithLabelValues("browser").Observe(time.Since(start).Seconds())
	logging.Debug().Str("url", pageURL).Dur("duration", time.Since(start)).Msg("Rendered page in headless browser")

	return &Page{
		URL:       pageURL,
		HTML:      html,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// Close shuts the browser down. Safe to call more than once.
func (f *BrowserFetcher) Close() error {
	f.closeOnce.Do(func() {
		f.allocCancel()
	})
	return nil
}
