// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/lodestone/internal/config"
)

// stubFetcher returns canned pages or canned errors and counts calls.
type stubFetcher struct {
	pages    map[string]string
	err      error
	errByURL map[string]error
	calls    int
	onFetch  func()
}

func (s *stubFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	s.calls++
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.err != nil {
		return nil, s.err
	}
	if err, ok := s.errByURL[url]; ok {
		return nil, err
	}
	html, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("no page for %s", url)
	}
	return &Page{URL: url, HTML: html, FetchedAt: time.Now().UTC()}, nil
}

func (s *stubFetcher) Close() error { return nil }

// politeTestConfig keeps the limiter effectively open so tests run at
// full speed; politeness behavior under test is the breaker and cache.
func politeTestConfig() *config.ScrapeConfig {
	return &config.ScrapeConfig{
		RequestsPerSecond:  1000,
		Burst:              100,
		BreakerMaxFailures: 3,
		BreakerCooldown:    time.Minute,
	}
}

func TestPoliteFetcher_FetchesAndCaches(t *testing.T) {
	inner := &stubFetcher{pages: map[string]string{"https://example.com/a": "<html>a</html>"}}
	cache := setupTestCache(t, time.Hour)
	pf := NewPoliteFetcher(inner, cache, politeTestConfig())

	page, err := pf.Fetch(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.FromCache {
		t.Error("first fetch FromCache = true, want false")
	}
	if inner.calls != 1 {
		t.Fatalf("inner calls = %d, want 1", inner.calls)
	}

	// Second fetch is served from the cache without touching the
	// network fetcher.
	page, err = pf.Fetch(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !page.FromCache {
		t.Error("second fetch FromCache = false, want cache hit")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (cache hit must bypass the fetcher)", inner.calls)
	}
}

func TestPoliteFetcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &stubFetcher{err: errors.New("connection refused")}
	pf := NewPoliteFetcher(inner, nil, politeTestConfig())

	// The first three failures pass through the stub's error.
	for i := 0; i < 3; i++ {
		_, err := pf.Fetch(context.Background(), "https://example.com/down")
		if err == nil {
			t.Fatalf("Fetch() %d expected error", i)
		}
		if errors.Is(err, ErrFetchUnavailable) {
			t.Fatalf("Fetch() %d rejected early: %v", i, err)
		}
	}
	if inner.calls != 3 {
		t.Fatalf("inner calls = %d, want 3", inner.calls)
	}

	// The breaker is now open: requests are rejected without reaching
	// the fetcher and carry the typed error.
	_, err := pf.Fetch(context.Background(), "https://example.com/down")
	if !errors.Is(err, ErrFetchUnavailable) {
		t.Fatalf("Fetch() error = %v, want ErrFetchUnavailable", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3 (open breaker must not fetch)", inner.calls)
	}
}

func TestPoliteFetcher_CacheHitBypassesOpenBreaker(t *testing.T) {
	inner := &stubFetcher{err: errors.New("connection refused")}
	cache := setupTestCache(t, time.Hour)
	if err := cache.Put(&Page{URL: "https://example.com/cached", HTML: "x"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	pf := NewPoliteFetcher(inner, cache, politeTestConfig())

	// Trip the breaker on an uncached URL.
	for i := 0; i < 3; i++ {
		//nolint:errcheck // Failures are the point here
		pf.Fetch(context.Background(), "https://example.com/down")
	}
	if _, err := pf.Fetch(context.Background(), "https://example.com/down"); !errors.Is(err, ErrFetchUnavailable) {
		t.Fatalf("breaker did not open: %v", err)
	}

	// The cached page is still served.
	page, err := pf.Fetch(context.Background(), "https://example.com/cached")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !page.FromCache {
		t.Error("FromCache = false, want cache hit despite open breaker")
	}
}

func TestPoliteFetcher_NilCache(t *testing.T) {
	inner := &stubFetcher{pages: map[string]string{"https://example.com/a": "x"}}
	pf := NewPoliteFetcher(inner, nil, politeTestConfig())

	if _, err := pf.Fetch(context.Background(), "https://example.com/a"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if _, err := pf.Fetch(context.Background(), "https://example.com/a"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2 without a cache", inner.calls)
	}
}

func TestPoliteFetcher_LimiterHonorsCancellation(t *testing.T) {
	inner := &stubFetcher{pages: map[string]string{"https://example.com/a": "x"}}
	cfg := politeTestConfig()
	// One request per minute with no burst headroom forces a wait.
	cfg.RequestsPerSecond = 1.0 / 60.0
	cfg.Burst = 1
	pf := NewPoliteFetcher(inner, nil, cfg)

	// Consume the single burst token.
	if _, err := pf.Fetch(context.Background(), "https://example.com/a"); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := pf.Fetch(ctx, "https://example.com/a")
	if err == nil {
		t.Fatal("Fetch() expected error while throttled")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (throttled fetch must not run)", inner.calls)
	}
}
