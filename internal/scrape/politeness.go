// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// PoliteFetcher wraps a Fetcher with the politeness layer: a
// token-bucket rate limiter, a circuit breaker, and an optional page
// cache. Cache hits are served without touching the limiter or the
// breaker, so cached re-runs cost the target site nothing.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via
// sony/gobreaker) for its cooldown calculation. This is intentional
// for production resilience; tests exercise the trip threshold, which
// is count-based, not the recovery timing.
type PoliteFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*Page]
	cache   *PageCache
	name    string
}

// NewPoliteFetcher wraps inner with rate limiting and a circuit
// breaker per cfg. The cache may be nil to disable page caching.
//
// Circuit breaker configuration:
// - Opens after BreakerMaxFailures consecutive failures
// - Allows 1 probe request in half-open state
// - Waits BreakerCooldown before transitioning from open to half-open
func NewPoliteFetcher(inner Fetcher, cache *PageCache, cfg *config.ScrapeConfig) *PoliteFetcher {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = time.Minute
	}

	cbName := "scrape-fetch"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	breaker := gobreaker.NewCircuitBreaker[*Page](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1, // Single probe request in half-open state
		Timeout:     cooldown,

		// ReadyToTrip opens the circuit after a run of consecutive
		// failures. A scrape target that rejects every request is
		// either down or blocking us; hammering it helps nobody.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= maxFailures
			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateToString(from)
			toStr := breakerStateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &PoliteFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: breaker,
		cache:   cache,
		name:    cbName,
	}
}

// Fetch serves from the cache when possible, otherwise waits on the
// limiter and fetches through the circuit breaker. A fresh page is
// written back to the cache before returning.
//
// When the breaker is open the returned error wraps
// ErrFetchUnavailable so callers can distinguish "site is down" from a
// single failed page.
func (p *PoliteFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if p.cache != nil {
		cached, err := p.cache.Get(pageURL)
		if err != nil {
			logging.Warn().Err(err).Str("url", pageURL).Msg("Page cache read failed")
		} else if cached != nil {
			metrics.ScrapeFetchesTotal.WithLabelValues("cache", "cached").Inc()
			return cached, nil
		}
	}

	waitStart := time.Now()
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	metrics.ScrapeRateLimitWait.Observe(time.Since(waitStart).Seconds())

	page, err := p.breaker.Execute(func() (*Page, error) {
		return p.inner.Fetch(ctx, pageURL)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(p.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s", ErrFetchUnavailable, pageURL)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(p.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(p.name, "success").Inc()

	if p.cache != nil {
		if err := p.cache.Put(page); err != nil {
			logging.Warn().Err(err).Str("url", pageURL).Msg("Page cache write failed")
		}
	}
	return page, nil
}

// Close closes the wrapped fetcher. The cache has its own lifecycle
// and is not closed here.
func (p *PoliteFetcher) Close() error {
	return p.inner.Close()
}

// breakerStateToString converts circuit breaker state to string for logging
func breakerStateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
