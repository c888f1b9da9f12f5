// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package services

import (
	"context"
	"fmt"
	"time"
)

// PipelineRunner matches the rating-event pipeline's lifecycle.
// Satisfied by *events.Pipeline:
//   - Start brings up the embedded server, publisher, and durable
//     consumer
//   - Close drains and stops them
//   - Running reports whether the pipeline is up
type PipelineRunner interface {
	Start(ctx context.Context) error
	Close(ctx context.Context) error
	Running() bool
}

// EventPipelineService wraps the rating-event pipeline as a supervised
// service, adapting its Start/Close lifecycle to suture's Serve
// contract: start, block until cancellation, close with a bounded
// timeout.
//
// If Start fails, the error is returned immediately and suture
// restarts the service under its backoff policy.
//
// Example:
//
//	pipeline, _ := events.NewPipeline(cfg, db, logger)
//	svc := services.NewEventPipelineService(pipeline, 10*time.Second)
//	tree.AddMessagingService(svc)
type EventPipelineService struct {
	pipeline        PipelineRunner
	shutdownTimeout time.Duration
	name            string
}

// NewEventPipelineService creates an event pipeline service wrapper.
// Non-positive shutdownTimeout falls back to 10 seconds.
func NewEventPipelineService(pipeline PipelineRunner, shutdownTimeout time.Duration) *EventPipelineService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &EventPipelineService{
		pipeline:        pipeline,
		shutdownTimeout: shutdownTimeout,
		name:            "event-pipeline",
	}
}

// Serve implements suture.Service.
func (s *EventPipelineService) Serve(ctx context.Context) error {
	if err := s.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("event pipeline start failed: %w", err)
	}

	<-ctx.Done()

	// The Serve context is already canceled, so the drain needs its
	// own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.pipeline.Close(shutdownCtx); err != nil {
		return fmt.Errorf("event pipeline close failed: %w", err)
	}

	return ctx.Err()
}

// String implements fmt.Stringer; suture uses it to name the service
// in logs.
func (s *EventPipelineService) String() string {
	return s.name
}
