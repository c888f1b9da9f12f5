// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package config provides centralized configuration management for Lodestone.

This package handles loading, validation, and parsing of configuration for all
application components. It ensures consistent configuration across the backend
services and provides sensible defaults for optional settings.

# Configuration Sources

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Built-in defaults for every optional setting
 2. An optional YAML config file (CONFIG_PATH or ./config.yaml)
 3. Environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - DatasetConfig: Ratings/movies CSV locations and cleaning policy
  - DatabaseConfig: DuckDB connection and performance tuning
  - ServerConfig: HTTP server settings (host, port, timeout)
  - APIConfig: Pagination limits
  - SecurityConfig: Authentication, authorization, rate limiting, CORS
  - LoggingConfig: Log levels and output formats
  - RecommendConfig: Training schedule and algorithm hyperparameters
  - ScrapeConfig: Web scraper politeness, caching, circuit breaking
  - EventsConfig: Embedded NATS JetStream rating-event pipeline

# Environment Variables

Key environment variables by component:

Dataset:
  - RATINGS_PATH: Path to ratings CSV (userId,movieId,rating,timestamp)
  - MOVIES_PATH: Path to movies CSV (movieId,title,genres)
  - MIN_RATINGS_PER_ITEM: Cleaning popularity floor (default: 5)
  - LIKED_THRESHOLD: Liked-item rating boundary (default: 3.5)

Database:
  - DUCKDB_PATH: Database file path (default: ./data/lodestone.duckdb)
  - DUCKDB_THREADS: Thread count (default: CPU count)
  - DUCKDB_MAX_MEMORY: Memory limit (default: 2GB)

Server:
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8580)
  - ENVIRONMENT: development, staging, production (default: development)

Authentication (SecurityConfig):
  - AUTH_MODE: Authentication mode (jwt, basic, oidc, none)
  - JWT_SECRET: JWT signing secret (min 32 chars, required for jwt mode)
  - ADMIN_USERNAME / ADMIN_PASSWORD: Admin credentials (jwt and basic modes)
  - RATE_LIMIT_REQS / RATE_LIMIT_WINDOW: API rate limiting
  - CORS_ORIGINS: Comma-separated allowed origins

Recommendation Engine (RecommendConfig):
  - RECOMMEND_ENABLED: Enable the engine (default: true)
  - RECOMMEND_ALGORITHMS: Comma-separated algorithm list (default: als,itemknn,popularity)
  - RECOMMEND_TRAIN_INTERVAL: Retraining cadence (default: 24h)
  - RECOMMEND_ALS_FACTORS / ITERATIONS / REGULARIZATION / ALPHA: ALS tuning

Scraper (ScrapeConfig):
  - SCRAPE_REQUESTS_PER_SECOND: Per-host politeness limit (default: 1)
  - SCRAPE_HEADLESS: Headless browser fetches (default: true)
  - SCRAPE_CACHE_DIR / SCRAPE_CACHE_TTL: BadgerDB page cache

Events (EventsConfig):
  - EVENTS_ENABLED: Enable the NATS pipeline (default: false)
  - EVENTS_EMBEDDED: Run an in-process NATS server (default: true)
  - EVENTS_STORE_DIR: JetStream storage directory (default: ./data/nats)

Any config path can also be set with a LODESTONE_ prefixed variable using
double underscores for nesting: LODESTONE_SERVER__PORT=9000.

# Usage Example

	import "github.com/tomtom215/lodestone/internal/config"

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("Starting server on %s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Database: %s\n", cfg.Database.Path)

# Validation

The package performs comprehensive validation at Load() time:

  - Required fields per auth mode: JWT_SECRET for jwt, admin credentials for basic
  - String length: JWT_SECRET >= 32 chars
  - Numeric ranges: HTTP_PORT (1-65535), rate limit bounds
  - Enum membership: AUTH_MODE, LOG_LEVEL, RECOMMEND_ALGORITHMS entries
  - Placeholder detection: secrets containing CHANGEME or similar are rejected
  - Production guards: AUTH_MODE=none and wildcard CORS refused in production

# Thread Safety

The Config struct is immutable after Load() returns, making it safe for
concurrent access from multiple goroutines without synchronization.
*/
package config
