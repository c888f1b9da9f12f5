// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamName is the JetStream stream holding all rating subjects.
// Stream names cannot contain wildcards, so subscribers bind to this
// stream by name when consuming ratings.>.
const StreamName = "RATINGS"

// StreamConfig defines rating stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
}

// DefaultStreamConfig returns production stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            StreamName,
		Subjects:        []string{TopicPrefix + ".>"},
		MaxAge:          30 * 24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,      // Unlimited
		DuplicateWindow: 2 * time.Minute,
	}
}

// StreamManager handles JetStream stream lifecycle.
type StreamManager struct {
	js     jetstream.JetStream
	config StreamConfig
}

// NewStreamManager creates a stream manager over an open connection.
func NewStreamManager(nc *nats.Conn, cfg *StreamConfig) (*StreamManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	return &StreamManager{
		js:     js,
		config: *cfg,
	}, nil
}

// EnsureStream creates or updates the rating stream. The duplicate
// window is what makes Nats-Msg-Id publishing idempotent.
func (m *StreamManager) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:        m.config.Name,
		Subjects:    m.config.Subjects,
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      m.config.MaxAge,
		MaxBytes:    m.config.MaxBytes,
		MaxMsgs:     m.config.MaxMsgs,
		Duplicates:  m.config.DuplicateWindow,
		Replicas:    1,
		Storage:     jetstream.FileStorage,
		AllowDirect: true,
		Discard:     jetstream.DiscardOld,
	}

	_, err := m.js.Stream(ctx, m.config.Name)
	if err == nil {
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream: %w", err)
		}
		return stream, nil
	}

	stream, err := m.js.CreateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return stream, nil
}

// GetStreamInfo returns current stream state.
func (m *StreamManager) GetStreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	stream, err := m.js.Stream(ctx, m.config.Name)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return stream.Info(ctx)
}
