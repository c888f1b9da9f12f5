// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// Pipeline owns the rating-event machinery end to end: an optional
// embedded JetStream server, the stream, the publisher, and the
// durable consumer that lands events in the database. When disabled
// by configuration every component stays nil and PublishRating
// returns ErrPipelineDisabled so callers insert ratings directly.
type Pipeline struct {
	cfg         config.EventsConfig
	store       RatingStore
	broadcaster Broadcaster

	mu         sync.Mutex
	started    bool
	server     *EmbeddedServer
	conn       *natsgo.Conn
	streams    *StreamManager
	publisher  *Publisher
	subscriber message.Subscriber
	consumer   *RatingConsumer
}

// NewPipeline creates an unstarted pipeline. A nil config behaves as
// disabled.
func NewPipeline(cfg *config.EventsConfig, store RatingStore) *Pipeline {
	p := &Pipeline{store: store}
	if cfg != nil {
		p.cfg = *cfg
	}
	return p
}

// Enabled reports whether the pipeline is switched on by configuration.
func (p *Pipeline) Enabled() bool {
	return p.cfg.Enabled
}

// SetBroadcaster attaches a live-update broadcaster for landed
// ratings. Call before Start.
func (p *Pipeline) SetBroadcaster(b Broadcaster) {
	p.broadcaster = b
}

// Start brings up the configured components. It is a no-op when the
// pipeline is disabled and idempotent when already started. On partial
// failure everything already started is torn down before returning.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.cfg.Enabled {
		logging.Info().Msg("Event pipeline disabled, ratings insert directly")
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}

	url := p.cfg.URL
	if p.cfg.EmbeddedServer {
		sc := ServerConfigFromEvents(&p.cfg)
		srv, err := NewEmbeddedServer(&sc)
		if err != nil {
			return fmt.Errorf("start embedded server: %w", err)
		}
		p.server = srv
		url = srv.ClientURL()
	}

	if err := p.startClients(ctx, url); err != nil {
		teardownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if terr := p.teardownLocked(teardownCtx); terr != nil {
			logging.Warn().Err(terr).Msg("Event pipeline teardown after failed start")
		}
		return err
	}

	p.started = true
	logging.Info().
		Str("url", url).
		Bool("embedded", p.cfg.EmbeddedServer).
		Str("stream", StreamName).
		Msg("Event pipeline started")
	return nil
}

func (p *Pipeline) startClients(ctx context.Context, url string) error {
	nc, err := natsgo.Connect(url,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	p.conn = nc

	streamCfg := DefaultStreamConfig()
	sm, err := NewStreamManager(nc, &streamCfg)
	if err != nil {
		return err
	}
	p.streams = sm
	if _, err := sm.EnsureStream(ctx); err != nil {
		return fmt.Errorf("ensure stream: %w", err)
	}

	pub, err := NewPublisher(DefaultPublisherConfig(url), nil)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	pub.SetCircuitBreaker(NewCircuitBreaker(DefaultCircuitBreakerConfig("events-publish")))
	p.publisher = pub

	subCfg := DefaultSubscriberConfig(url)
	if p.cfg.DurableName != "" {
		subCfg.DurableName = p.cfg.DurableName
	}
	if p.cfg.QueueGroup != "" {
		subCfg.QueueGroup = p.cfg.QueueGroup
	}
	sub, err := NewSubscriber(&subCfg, nil)
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	p.subscriber = sub

	consumerCfg := DefaultConsumerConfig()
	consumer, err := NewRatingConsumer(sub, p.store, &consumerCfg)
	if err != nil {
		return err
	}
	if p.broadcaster != nil {
		consumer.SetBroadcaster(p.broadcaster)
	}
	p.consumer = consumer

	// The consumer lives until Close, not until the startup context
	// ends, so it subscribes with a background context.
	return consumer.Start(context.Background())
}

// PublishRating publishes an event to its ratings.<source> topic.
// Callers treat ErrPipelineDisabled as the signal to insert directly.
func (p *Pipeline) PublishRating(ctx context.Context, event *RatingEvent) error {
	if !p.cfg.Enabled {
		return ErrPipelineDisabled
	}

	p.mu.Lock()
	pub := p.publisher
	started := p.started
	p.mu.Unlock()

	if !started || pub == nil {
		return ErrPipelineNotStarted
	}
	return pub.PublishRating(ctx, event)
}

// Running reports whether the consumer loop is active.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	consumer := p.consumer
	p.mu.Unlock()
	return consumer != nil && consumer.IsRunning()
}

// ConsumerStats returns consumer statistics, zero when the pipeline
// is disabled or not started.
func (p *Pipeline) ConsumerStats() ConsumerStats {
	p.mu.Lock()
	consumer := p.consumer
	p.mu.Unlock()
	if consumer == nil {
		return ConsumerStats{}
	}
	return consumer.Stats()
}

// StreamInfo returns JetStream stream state for diagnostics.
func (p *Pipeline) StreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	p.mu.Lock()
	sm := p.streams
	p.mu.Unlock()
	if sm == nil {
		return nil, ErrPipelineNotStarted
	}
	return sm.GetStreamInfo(ctx)
}

// Close stops the pipeline. Safe to call on a disabled or unstarted
// pipeline.
func (p *Pipeline) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	p.started = false
	return p.teardownLocked(ctx)
}

// teardownLocked stops components in reverse dependency order: the
// consumer first so in-flight ratings drain, then the transports,
// then the embedded server.
func (p *Pipeline) teardownLocked(ctx context.Context) error {
	var errs []error

	if p.consumer != nil {
		p.consumer.Stop()
		p.consumer = nil
	}
	if p.subscriber != nil {
		if err := p.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
		p.subscriber = nil
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
		p.publisher = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.streams = nil

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown embedded server: %w", err))
		}
		p.server = nil
	}

	return errors.Join(errs...)
}
