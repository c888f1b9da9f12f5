// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package events is the rating-event pipeline: an optional embedded
// NATS JetStream server, a Watermill publisher with circuit breaker
// protection and message-ID deduplication, and a durable consumer that
// lands rating events in DuckDB.
//
// The pipeline decouples rating ingestion from request handling: the
// API publishes a RatingEvent and returns, and the consumer inserts
// the rating and bumps the data version that signals training
// staleness. When the pipeline is disabled by configuration the API
// inserts ratings directly; everything here is additive.
//
// Topics follow ratings.<source>, e.g. ratings.api, under one
// JetStream stream with a duplicate-detection window keyed by
// Nats-Msg-Id.
package events
