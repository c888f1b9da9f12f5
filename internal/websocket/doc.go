// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package websocket pushes live workbench updates to connected frontend
clients.

It implements a hub-and-spoke pattern over gorilla/websocket: a Hub
broadcasts typed messages to every connected Client, and each Client
runs a read pump (ping handling, connection health) and a write pump
(fan-out delivery, keepalive pings).

Message types:

  - rating: a rating event landed through the pipeline
  - training_progress: ALS epoch updates while a model trains
  - training_completed: a trained model became active
  - ingest_completed: a CSV ingest finished (row counts, duration)
  - scrape_progress: per-page progress of a scrape run
  - analysis_completed: a mining/clustering/regression run finished
  - stats_update: dataset counters changed
  - ping / pong: client keepalive

The hub run loop services shutdown, client lifecycle, and broadcasts
in that priority order, and delivers to clients sorted by connection
ID so fan-out order is reproducible. Slow clients are dropped rather
than allowed to stall the broadcast path.

The hub satisfies the event pipeline's Broadcaster interface through
BroadcastRaw, so landed ratings stream to clients without this package
importing the pipeline.
*/
package websocket
