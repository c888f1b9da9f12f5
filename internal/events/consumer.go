// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/lodestone/internal/cache"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
	"github.com/tomtom215/lodestone/internal/models"
)

// MessageSource defines the interface for receiving messages.
// The JetStream subscriber satisfies it in production; tests can use
// an in-memory Pub/Sub.
type MessageSource interface {
	// Subscribe subscribes to a topic and returns a channel of messages.
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	// Close closes the message source.
	Close() error
}

// RatingStore lands consumed rating events. *database.DB satisfies it.
type RatingStore interface {
	InsertRating(ctx context.Context, rating *models.Rating, source string) error
}

// Broadcaster pushes successfully landed events to live subscribers.
// The WebSocket hub satisfies it. Broadcasting is best-effort and
// never fails message processing.
type Broadcaster interface {
	BroadcastRaw(data []byte)
}

// ConsumerConfig holds configuration for the rating consumer.
type ConsumerConfig struct {
	// Topic is the NATS subject pattern to subscribe to (default: "ratings.>")
	Topic string

	// EnableDeduplication enables event deduplication based on EventID.
	// JetStream already rejects duplicate message IDs inside the stream
	// duplicate window; this guards redeliveries beyond it.
	EnableDeduplication bool

	// DeduplicationWindow is how long to remember event IDs
	DeduplicationWindow time.Duration

	// MaxDeduplicationEntries is the maximum number of entries in the dedup cache
	MaxDeduplicationEntries int
}

// DefaultConsumerConfig returns a ConsumerConfig with sensible defaults.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Topic:                   TopicPrefix + ".>",
		EnableDeduplication:     true,
		DeduplicationWindow:     5 * time.Minute,
		MaxDeduplicationEntries: 10000,
	}
}

// ConsumerStats holds runtime statistics for monitoring.
type ConsumerStats struct {
	EventsReceived    int64     // Total messages received
	EventsProcessed   int64     // Successfully inserted ratings
	ParseFailures     int64     // Unmarshal or validation failures
	DuplicatesSkipped int64     // Events skipped due to deduplication
	InsertFailures    int64     // Store errors (nacked for redelivery)
	LastEventTime     time.Time // Time of last received message
}

// RatingConsumer consumes rating events and inserts them into the
// store. Unparseable and invalid events are acked and counted rather
// than redelivered; store failures are nacked so JetStream redelivers
// up to MaxDeliver times.
type RatingConsumer struct {
	source      MessageSource
	store       RatingStore
	config      ConsumerConfig
	broadcaster Broadcaster

	serializer *Serializer

	// Deduplication cache using BloomLRU for O(1) seen-ID checks
	dedupCache *cache.BloomLRU

	// State
	running atomic.Bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Stats
	eventsReceived    atomic.Int64
	eventsProcessed   atomic.Int64
	parseFailures     atomic.Int64
	duplicatesSkipped atomic.Int64
	insertFailures    atomic.Int64
	lastEventTime     atomic.Value // stores time.Time
}

// NewRatingConsumer creates a consumer over any Watermill subscriber.
// Production wiring passes the JetStream subscriber with the ratings.>
// wildcard; tests can use an in-memory Pub/Sub with a literal topic.
// The source's Close stays with whoever created it.
func NewRatingConsumer(source MessageSource, store RatingStore, cfg *ConsumerConfig) (*RatingConsumer, error) {
	if source == nil {
		return nil, fmt.Errorf("message source required")
	}
	if store == nil {
		return nil, fmt.Errorf("rating store required")
	}
	if cfg == nil {
		defaults := DefaultConsumerConfig()
		cfg = &defaults
	}

	c := &RatingConsumer{
		source:     source,
		store:      store,
		config:     *cfg,
		serializer: NewSerializer(),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	c.lastEventTime.Store(time.Time{})

	if cfg.EnableDeduplication {
		c.dedupCache = cache.NewBloomLRU(
			cfg.MaxDeduplicationEntries,
			cfg.DeduplicationWindow,
			0.01, // 1% false positive rate
		)
	}

	return c, nil
}

// SetBroadcaster attaches a live-update broadcaster. Call before Start.
func (c *RatingConsumer) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// Start begins consuming messages from the source.
// Returns immediately; consumption happens in a goroutine.
func (c *RatingConsumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return nil // Already running
	}

	messages, err := c.source.Subscribe(ctx, c.config.Topic)
	if err != nil {
		c.running.Store(false)
		return fmt.Errorf("subscribe to %s: %w", c.config.Topic, err)
	}

	go c.consumeLoop(ctx, messages)

	if c.config.EnableDeduplication {
		go c.dedupCleanupLoop(ctx)
	}

	logging.Info().
		Str("topic", c.config.Topic).
		Bool("dedup", c.config.EnableDeduplication).
		Msg("Rating consumer started")
	return nil
}

// Stop gracefully stops the consumer.
func (c *RatingConsumer) Stop() {
	if !c.running.Swap(false) {
		return // Already stopped
	}

	close(c.stopCh)
	<-c.doneCh

	logging.Info().Msg("Rating consumer stopped")
}

// IsRunning returns whether the consumer is currently running.
func (c *RatingConsumer) IsRunning() bool {
	return c.running.Load()
}

// Stats returns current runtime statistics.
func (c *RatingConsumer) Stats() ConsumerStats {
	var lastTime time.Time
	if t, ok := c.lastEventTime.Load().(time.Time); ok {
		lastTime = t
	}
	return ConsumerStats{
		EventsReceived:    c.eventsReceived.Load(),
		EventsProcessed:   c.eventsProcessed.Load(),
		ParseFailures:     c.parseFailures.Load(),
		DuplicatesSkipped: c.duplicatesSkipped.Load(),
		InsertFailures:    c.insertFailures.Load(),
		LastEventTime:     lastTime,
	}
}

// consumeLoop processes messages from the subscription. When shutdown
// is signaled it drains buffered messages before returning so ratings
// received before the stop are not lost.
func (c *RatingConsumer) consumeLoop(ctx context.Context, messages <-chan *message.Message) {
	defer func() {
		c.running.Store(false)
		close(c.doneCh)
	}()

	for {
		select {
		case <-ctx.Done():
			c.drainMessages(messages)
			return
		case <-c.stopCh:
			c.drainMessages(messages)
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.processMessage(ctx, msg)
		}
	}
}

// drainMessages processes remaining buffered messages before shutdown.
// Uses a short timeout so a still-producing channel cannot block the
// stop indefinitely.
func (c *RatingConsumer) drainMessages(messages <-chan *message.Message) {
	drainTimeout := time.After(100 * time.Millisecond)
	drained := 0

	for {
		select {
		case <-drainTimeout:
			c.logDrained(drained)
			return
		case msg, ok := <-messages:
			if !ok {
				c.logDrained(drained)
				return
			}
			// Original context is canceled by now
			c.processMessage(context.Background(), msg)
			drained++
		default:
			// No more messages in buffer
			c.logDrained(drained)
			return
		}
	}
}

func (c *RatingConsumer) logDrained(count int) {
	if count > 0 {
		logging.Info().Int("count", count).Msg("Rating consumer drained messages during shutdown")
	}
}

// processMessage handles a single message.
func (c *RatingConsumer) processMessage(ctx context.Context, msg *message.Message) {
	startTime := time.Now()
	c.eventsReceived.Add(1)
	c.lastEventTime.Store(startTime)
	metrics.EventsConsumed.Inc()

	event, err := c.serializer.Unmarshal(msg.Payload)
	if err != nil {
		c.parseFailures.Add(1)
		metrics.EventsParseFailed.Inc()
		logging.Warn().
			Str("message_uuid", msg.UUID).
			Err(err).
			Msg("Failed to parse rating event")
		msg.Ack() // Ack to prevent redelivery of malformed messages
		return
	}
	if err := event.Validate(); err != nil {
		c.parseFailures.Add(1)
		metrics.EventsParseFailed.Inc()
		logging.Warn().
			Str("event_id", event.EventID).
			Err(err).
			Msg("Dropping invalid rating event")
		msg.Ack()
		return
	}

	if c.dedupCache != nil && c.dedupCache.Contains(event.EventID) {
		c.duplicatesSkipped.Add(1)
		metrics.EventsDeduplicated.Inc()
		msg.Ack()
		return
	}

	rating := event.ToRating()
	if err := c.store.InsertRating(ctx, &rating, event.Source); err != nil {
		c.insertFailures.Add(1)
		logging.Warn().
			Str("event_id", event.EventID).
			Int64("user_id", event.UserID).
			Int64("movie_id", event.MovieID).
			Err(err).
			Msg("Rating insert failed, nacking for redelivery")
		msg.Nack()
		return
	}

	// Record after a successful insert so a redelivered failure is not
	// mistaken for a duplicate
	if c.dedupCache != nil {
		c.dedupCache.Record(event.EventID)
	}
	if c.broadcaster != nil {
		c.broadcaster.BroadcastRaw(msg.Payload)
	}

	c.eventsProcessed.Add(1)
	metrics.EventsProcessed.Inc()
	metrics.EventProcessingDuration.Observe(time.Since(startTime).Seconds())
	msg.Ack()
}

// dedupCleanupLoop periodically evicts expired deduplication entries.
// The BloomLRU handles LRU eviction on insert; this sweeps entries
// that aged out without being pushed out.
func (c *RatingConsumer) dedupCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(c.config.DeduplicationWindow / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			if removed := c.dedupCache.CleanupExpired(); removed > 0 {
				logging.Debug().Int("removed", removed).Msg("Dedup cache cleanup")
			}
		}
	}
}
