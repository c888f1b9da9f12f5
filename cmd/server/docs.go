// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package main provides the Lodestone HTTP server
//
// Lodestone API provides data mining analyses and recommendations
// over movie-ratings datasets stored in DuckDB.
//
// @title Lodestone API
// @version 1.0
// @description Data mining workbench and recommendation engine for movie-ratings datasets
// @description
// @description ## Features
// @description
// @description - **Dataset Ingest**: CSV ratings and movies loaded into DuckDB with cleaning reports
// @description - **Association Rules**: Apriori mining over liked-item transactions with support/confidence/lift
// @description - **Classification**: k-NN and Gaussian naive Bayes classifiers with holdout evaluation
// @description - **Clustering**: K-means over movie feature vectors with silhouette scoring
// @description - **Regression**: OLS rating prediction with diagnostics
// @description - **Recommendations**: Implicit-feedback ALS, item/user KNN and popularity blending
// @description - **Scraping**: Polite listing-site scraper with fixture-tested parsing
// @description - **Fuzzy Search**: Title matching and duplicate detection
// @description - **Real-time Updates**: WebSocket-based training and ingest notifications
// @description - **Data Export**: CSV and XLSX export capabilities
// @description
// @description ## Authentication
// @description
// @description Most endpoints require JWT authentication via HTTP-only cookie.
// @description Use `/api/v1/auth/login` to obtain a token, which will be automatically included in subsequent requests.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address.
// @description Rate limit headers are included in responses: `X-RateLimit-Limit`, `X-RateLimit-Remaining`, `X-RateLimit-Reset`.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Human-readable error message",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-01-18T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/lodestone/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8580
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in cookie
// @name token
// @description JWT token stored in HTTP-only cookie. Obtain via /api/v1/auth/login endpoint.
//
// @tag.name Core
// @tag.description Health checks, statistics, dataset ingest and cleaning
//
// @tag.name Analyses
// @tag.description Association rule mining, classification, clustering and regression runs
//
// @tag.name Recommendations
// @tag.description Per-user recommendations, similar items and rating submission
//
// @tag.name Scrape
// @tag.description Listing-site scrape runs and scraped movie results
//
// @tag.name Search
// @tag.description Fuzzy title search and duplicate detection
//
// @tag.name Auth
// @tag.description Login, logout and session management
package main
