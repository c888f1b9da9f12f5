// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/lodestone/internal/config"
)

func TestPipeline_Disabled(t *testing.T) {
	t.Parallel()

	cfg := config.EventsConfig{Enabled: false}
	p := NewPipeline(&cfg, &fakeRatingStore{})

	if p.Enabled() {
		t.Error("Enabled() = true for disabled config")
	}
	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v, want nil no-op", err)
	}
	if p.Running() {
		t.Error("Running() = true for disabled pipeline")
	}

	err := p.PublishRating(ctx, validEvent())
	if !errors.Is(err, ErrPipelineDisabled) {
		t.Errorf("PublishRating() error = %v, want ErrPipelineDisabled", err)
	}

	if stats := p.ConsumerStats(); stats.EventsReceived != 0 {
		t.Errorf("ConsumerStats() = %+v, want zero", stats)
	}
	if _, err := p.StreamInfo(ctx); !errors.Is(err, ErrPipelineNotStarted) {
		t.Errorf("StreamInfo() error = %v, want ErrPipelineNotStarted", err)
	}
	if err := p.Close(ctx); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPipeline_NilConfigBehavesDisabled(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil, &fakeRatingStore{})
	if p.Enabled() {
		t.Error("Enabled() = true for nil config")
	}
	if err := p.Start(context.Background()); err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestPipeline_PublishBeforeStart(t *testing.T) {
	t.Parallel()

	cfg := config.EventsConfig{Enabled: true, URL: "nats://127.0.0.1:4222"}
	p := NewPipeline(&cfg, &fakeRatingStore{})

	err := p.PublishRating(context.Background(), validEvent())
	if !errors.Is(err, ErrPipelineNotStarted) {
		t.Errorf("PublishRating() error = %v, want ErrPipelineNotStarted", err)
	}
}

func TestDefaultStreamConfig(t *testing.T) {
	t.Parallel()

	sc := DefaultStreamConfig()
	if sc.Name != StreamName {
		t.Errorf("Name = %q, want %q", sc.Name, StreamName)
	}
	if len(sc.Subjects) != 1 || sc.Subjects[0] != "ratings.>" {
		t.Errorf("Subjects = %v, want [ratings.>]", sc.Subjects)
	}
	if sc.DuplicateWindow <= 0 {
		t.Error("DuplicateWindow must be positive for Nats-Msg-Id dedup")
	}
}
