// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package middleware provides transport-level HTTP middleware shared by
the API routes.

Two components live here:

  - PrometheusMetrics: per-request instrumentation feeding the
    lodestone_api_* metric families (request counts, latency
    histograms, in-flight gauge)
  - Compression: gzip response compression for clients that send
    Accept-Encoding: gzip

Both operate on http.HandlerFunc and are bridged onto chi route groups
by the api package. Authentication, authorization, CORS and rate
limiting middleware live with their subsystems (internal/auth,
internal/authz, internal/api).
*/
package middleware
