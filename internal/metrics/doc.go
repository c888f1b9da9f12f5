// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package metrics provides Prometheus instrumentation for Lodestone.

All collectors are registered with the default registry via promauto at
package initialization and exposed on the /metrics endpoint.

# Metric Groups

Database (duckdb_*):
  - duckdb_query_duration_seconds: Query latency by operation and table
  - duckdb_query_errors_total: Query errors by operation, table, error type
  - duckdb_connection_pool_size: Connections currently in use

API (api_*):
  - api_requests_total: Requests by method, endpoint, status code
  - api_request_duration_seconds: Latency by method and endpoint
  - api_active_requests: In-flight request gauge
  - api_rate_limit_hits_total: Rate limit rejections by endpoint

Ingest (ingest_*):
  - ingest_duration_seconds: CSV/scrape/event ingest latency by source
  - ingest_records_processed_total: Records ingested by source
  - ingest_records_rejected_total: Records dropped during cleaning by reason
  - ingest_last_success_timestamp: Last successful ingest per source

Training and serving (model_*, recommendation_*):
  - model_training_duration_seconds: Training latency by algorithm
  - model_training_runs_total: Runs by algorithm and result
  - model_users / model_items / model_interactions: Matrix dimensions
  - recommendation_requests_total: Served requests by algorithm and mode
  - recommendation_duration_seconds: Scoring latency by mode
  - recommendation_cache_hits_total / misses: Result cache efficiency
  - recommendation_fallbacks_total: Popularity fallbacks by reason

Analysis (analysis_*):
  - analysis_runs_total: Mining/classify/cluster/regress runs by result
  - analysis_duration_seconds: Run latency by kind

Scraper (scrape_*):
  - scrape_fetches_total: Page fetches by fetcher and result
  - scrape_fetch_duration_seconds: Fetch latency by fetcher
  - scrape_rows_extracted_total: Extracted table rows
  - scrape_rate_limit_wait_seconds: Politeness limiter wait time

Infrastructure:
  - cache_*: General cache efficiency by cache type
  - websocket_*: Connection and message counts
  - circuit_breaker_*: Breaker state, requests, transitions
  - events_*: NATS rating-event pipeline counters
  - app_info / app_uptime_seconds: Build info and uptime

# Usage

Record helpers wrap the common observation patterns:

	start := time.Now()
	rows, err := db.Query(ctx, query)
	metrics.RecordDBQuery("SELECT", "ratings", time.Since(start), err)

Gauges for long-lived state are set directly:

	metrics.UpdateModelSize(numUsers, numItems, numInteractions)

# Cardinality

Label values are drawn from small fixed sets (algorithm names, analysis
kinds, chi route patterns). Unbounded values such as user IDs or titles
must never be used as label values.
*/
package metrics
