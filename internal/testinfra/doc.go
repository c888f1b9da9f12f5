// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package testinfra provides container-backed infrastructure for
// integration tests.
//
// It uses testcontainers-go to run an nginx container serving
// generated movie listing pages, so the scraper's pagination walk,
// rate limiting, and parsing run against a real HTTP server instead
// of httptest handlers.
//
// # Listing Container
//
//	func TestScrapeWalk(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    listing, err := testinfra.NewListingContainer(ctx,
//	        testinfra.WithPages(3),
//	        testinfra.WithMoviesPerPage(20),
//	    )
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, listing.Container)
//	    // scrape listing.StartURL() ...
//	}
//
// The infrastructure files carry the integration build tag; unit test
// runs never touch Docker.
package testinfra
