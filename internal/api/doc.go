// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package api provides the HTTP surface of the workbench: chi routing,
// request middleware, and the handlers for dataset ingestion, analysis
// runs, recommendations, evaluation, fuzzy title search, and the live
// progress WebSocket.
//
// # Layout
//
//   - Router wires the route tree (router.go). Auth endpoints mount
//     outside the authorization middleware; everything under /api/v1
//     passes authentication and the Casbin enforcer.
//   - Handler carries the core endpoints (health, datasets, analyses,
//     evaluation, search, ratings, WebSocket upgrade).
//   - RecommendHandler fronts the recommendation engine.
//
// # Response envelope
//
// Every endpoint responds with models.APIResponse:
//
//	{
//	  "status": "success",
//	  "data": { ... },
//	  "metadata": {"timestamp": "...", "query_time_ms": 12}
//	}
//
// Errors carry status "error" and an Error{Code, Message} block.
// Responses are encoded with goccy/go-json and tagged with an FNV-1a
// ETag so dashboard polling can revalidate cheaply.
package api
