// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package main is the entry point for the Lodestone server application.

Lodestone is a self-hosted data mining workbench and recommendation
engine for movie-ratings datasets. It ingests ratings and movie CSVs
into DuckDB, runs association rule mining, classification, clustering
and regression analyses over them, scrapes listing sites for catalog
enrichment, and serves implicit-feedback recommendations trained on
the ingested interactions.

# Application Architecture

The server implements a layered architecture with Suture v4 process supervision:

	RootSupervisor ("lodestone")
	├── DataSupervisor ("data-layer")
	│   └── Training Service (scheduled + staleness-triggered retraining)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (real-time progress and rating events)
	│   └── Event Pipeline (optional, embedded NATS JetStream)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (REST API with Swagger documentation)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Database: DuckDB with ratings, movies and analysis tables
 4. Supervisor Tree: Suture v4 process supervision
 5. WebSocket Hub: Real-time training and ingest notifications
 6. Event Pipeline: Optional NATS JetStream rating-event flow
 7. Recommendation Engine: ALS, KNN and popularity models
 8. Authentication: JWT, Basic Auth, OIDC, or no-auth mode
 9. Authorization: Casbin RBAC enforcer
 10. HTTP Server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8580               # HTTP server port
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Dataset
	RATINGS_PATH=./data/ratings.csv
	MOVIES_PATH=./data/movies.csv
	DUCKDB_PATH=./data/lodestone.duckdb

	# Authentication (choose one mode)
	AUTH_MODE=jwt                # jwt, basic, oidc, multi, or none
	JWT_SECRET=<32+ chars>       # Required for JWT mode
	ADMIN_USERNAME=admin
	ADMIN_PASSWORD=<password>

	# Recommendation engine
	RECOMMEND_ENABLED=true
	RECOMMEND_ALGORITHMS=als,itemknn,popularity
	RECOMMEND_TRAIN_INTERVAL=24h

	# Event pipeline (optional)
	EVENTS_ENABLED=false
	EVENTS_EMBEDDED_SERVER=true

See .env.example for complete configuration reference.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Broadcasts shutdown to WebSocket clients
 3. Waits for in-flight requests (10s timeout)
 4. Drains the event pipeline and stops the embedded NATS server
 5. Flushes pending writes and closes database
 6. Reports any services that failed to stop

# Usage Examples

Development (no auth):

	export AUTH_MODE=none
	export RATINGS_PATH=./data/ratings.csv MOVIES_PATH=./data/movies.csv
	go run ./cmd/server

Production (JWT):

	export AUTH_MODE=jwt
	export JWT_SECRET=$(openssl rand -base64 32)
	export ADMIN_USERNAME=admin ADMIN_PASSWORD=secure-password
	./lodestone-server

Docker:

	docker run -d \
	  -e AUTH_MODE=none \
	  -v ./data:/data \
	  -p 8580:8580 \
	  ghcr.io/tomtom215/lodestone

# API Documentation

Swagger documentation is available at /swagger/index.html when the server
is running. The API is organized into categories:

  - Core: Health checks, statistics, dataset ingest and cleaning
  - Analyses: Rule mining, classification, clustering, regression
  - Recommendations: Per-user recommendations, similar items, ratings
  - Scrape: Listing-site scrape runs and results
  - Search: Fuzzy title search and duplicate detection
  - WebSocket: Real-time training and ingest notifications
  - Admin: Policy management, training triggers

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/recommend: Recommendation engine internals
  - internal/mining: Association rule mining
*/
package main
