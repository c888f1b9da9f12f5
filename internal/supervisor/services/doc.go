// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package services wraps the workbench's long-running components as
suture.Service implementations.

Each wrapper adapts one lifecycle shape to suture's blocking
Serve(ctx) contract:

  - HTTPServerService: http.Server's ListenAndServe/Shutdown pair,
    with a bounded graceful drain on cancellation.
  - WebSocketHubService: the hub's RunWithContext, which already
    matches the contract and only needs a stable name.
  - TrainingService: the recommendation engine's training loop;
    trains on startup when configured, retrains on a schedule, and
    retrains early when the database's data version moves past the
    version last trained against.
  - EventPipelineService: the rating-event pipeline's Start/Close
    pair.

Wrappers depend on small local interfaces rather than the concrete
components, so the component packages never import this one and the
wrappers test against mocks.
*/
package services
