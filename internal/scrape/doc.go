// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package scrape collects supplementary movie metadata from listing
// pages on the web.
//
// Two Fetcher implementations retrieve page HTML: BrowserFetcher drives
// a headless Chrome via chromedp for JavaScript-rendered pages, and
// HTTPFetcher issues plain GET requests for static pages. Both return
// the same Page value, so the extraction pipeline is fetcher-agnostic.
//
// PoliteFetcher wraps either implementation with the politeness layer:
// a token-bucket rate limiter, a circuit breaker that rejects fetches
// after repeated failures, and a BadgerDB-backed page cache with TTL so
// repeated runs against the same listing do not re-fetch. Cache hits
// bypass the limiter and the breaker entirely.
//
// MovieScraper walks a paginated listing, extracts {Title, Year,
// Rating, Votes} rows from each page and follows next links up to a
// configured page cap. Malformed rows are counted and skipped, never
// fatal. Scraped rows can be exported to CSV or to an .xlsx workbook.
package scrape
