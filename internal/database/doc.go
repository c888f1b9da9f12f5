// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package database provides the data access layer for Lodestone,
// backed by DuckDB.
//
// # Overview
//
// This package sits between the application and DuckDB, providing
// schema management, bulk CSV ingest, analytic queries over ratings
// and movies, fuzzy title search, and the data provider feeding the
// recommendation engine.
//
// # Architecture
//
// The package is organized into domain-specific files:
//
// Core operations:
//   - database.go: Lifecycle (connection, DSN tuning, initialization, cleanup)
//   - extensions.go: Optional DuckDB extension loading (rapidfuzz)
//   - schema.go: Table and index creation
//   - migrations.go: Versioned schema migrations
//   - cache.go: Prepared statement cache and data versioning
//
// Data operations:
//   - ingest.go: Bulk CSV ingest via read_csv and incremental inserts
//   - queries.go: Dataset statistics, histograms, top items
//   - search.go: Fuzzy title search with native fallback
//   - provider.go: recommend.DataProvider implementation
//   - runs.go: Analysis run persistence
//   - scrape_store.go: Scraped movie listing persistence
//
// # Database Technology
//
// The package uses DuckDB as its analytics database:
//   - OLAP-optimized for aggregation-heavy workbench queries
//   - read_csv for bulk ingest without row-at-a-time overhead
//   - Advanced SQL (window functions, CTEs, PERCENTILE_CONT)
//   - CGO-based driver (github.com/duckdb/duckdb-go/v2)
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	report, err := db.IngestRatingsCSV(ctx, "ratings.csv")
//	stats, err := db.GetDatasetStats(ctx)
//
// All query methods accept a context and time out after 30 seconds
// when the caller provides no deadline.
package database
