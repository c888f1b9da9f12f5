// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
Package supervisor provides Suture-based process supervision for the
workbench server.

Long-running components run as supervised services under a small tree
so a crash in one subsystem restarts that subsystem without taking
down the rest:

	lodestone (root)
	├── data-layer       model training service
	├── messaging-layer  WebSocket hub, rating-event pipeline
	└── api-layer        HTTP server

The layers exist for failure isolation: a panic in the training loop
must never interrupt request serving, and a flapping event pipeline
must not cycle the HTTP listener. Suture restarts a failing service
with exponential backoff after FailureThreshold failures inside the
FailureDecay window.

Suture events are logged through sutureslog into the application's
zerolog output via the logging package's slog bridge.

Service wrappers that adapt component lifecycles (Start/Shutdown,
RunWithContext, blocking listeners) to suture's Serve(ctx) contract
live in the services subpackage.
*/
package supervisor
