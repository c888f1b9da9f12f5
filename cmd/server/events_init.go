// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package main

import (
	"time"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/events"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/supervisor"
	"github.com/tomtom215/lodestone/internal/supervisor/services"
	ws "github.com/tomtom215/lodestone/internal/websocket"
)

// initEvents wires the NATS JetStream rating pipeline if enabled.
// Returns nil when the pipeline is disabled; the API falls back to
// direct database inserts for submitted ratings.
//
// The pipeline is supervised rather than started here: the messaging
// layer of the tree owns its lifecycle, so a crashed consumer or
// embedded server restarts with backoff instead of taking the process
// down.
func initEvents(cfg *config.Config, db *database.DB, hub *ws.Hub, tree *supervisor.SupervisorTree) *events.Pipeline {
	if !cfg.Events.Enabled {
		logging.Info().Msg("Event pipeline disabled (EVENTS_ENABLED=false); ratings insert directly")
		return nil
	}

	pipeline := events.NewPipeline(&cfg.Events, db)
	pipeline.SetBroadcaster(hub)

	tree.AddMessagingService(services.NewEventPipelineService(pipeline, 10*time.Second))
	logging.Info().
		Bool("embedded_server", cfg.Events.EmbeddedServer).
		Str("durable", cfg.Events.DurableName).
		Msg("Event pipeline added to supervisor tree")

	return pipeline
}
