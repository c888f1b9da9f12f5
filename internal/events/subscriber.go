// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
)

// SubscriberConfig holds durable consumer settings.
type SubscriberConfig struct {
	URL            string
	DurableName    string
	QueueGroup     string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAckPending  int
	CloseTimeout   time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
}

// DefaultSubscriberConfig returns production defaults. A single
// processor goroutine keeps rating inserts in publish order; DuckDB
// writes serialize behind the pool anyway.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:            url,
		DurableName:    "lodestone-ratings",
		QueueGroup:     "lodestone-workers",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,    // Max redelivery attempts
		MaxAckPending:  1000, // Flow control
		CloseTimeout:   30 * time.Second,
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
	}
}

// NewSubscriber creates a durable JetStream subscriber bound to the
// rating stream. Binding by stream name is required because the
// consumer topic ratings.> contains a wildcard, and stream names
// cannot.
func NewSubscriber(cfg *SubscriberConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	if logger == nil {
		logger = NewWatermillLogger()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("Subscriber disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("Subscriber reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(cfg.MaxDeliver),
		natsgo.MaxAckPending(cfg.MaxAckPending),
		natsgo.AckWait(cfg.AckWaitTimeout),
		// Deliver new messages only (use DeliverAll for replay)
		natsgo.DeliverNew(),
		natsgo.BindStream(StreamName),
	}

	wmConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    false,
			AckAsync:         false, // Synchronous acks for at-least-once
			SubscribeOptions: subOpts,
			DurablePrefix:    cfg.DurableName,
		},
	}

	sub, err := wmNats.NewSubscriber(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}
