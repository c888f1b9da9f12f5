// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := CorrelationIDFromContext(ctx); got != "" {
		t.Errorf("CorrelationIDFromContext(empty) = %q, want empty", got)
	}

	ctx = ContextWithCorrelationID(ctx, "abc12345")
	if got := CorrelationIDFromContext(ctx); got != "abc12345" {
		t.Errorf("CorrelationIDFromContext = %q, want %q", got, "abc12345")
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()

	if got := RequestIDFromContext(ctx); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q, want empty", got)
	}

	id := GenerateRequestID()
	ctx = ContextWithRequestID(ctx, id)
	if got := RequestIDFromContext(ctx); got != id {
		t.Errorf("RequestIDFromContext = %q, want %q", got, id)
	}
}

func TestGenerateCorrelationIDLength(t *testing.T) {
	id := GenerateCorrelationID()
	if len(id) != 8 {
		t.Errorf("GenerateCorrelationID() length = %d, want 8", len(id))
	}
}

func TestCtxAddsFields(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCorrelationID(ctx, "corr1234")
	ctx = ContextWithRequestID(ctx, "req-uuid")

	Ctx(ctx).Info().Msg("with context")

	out := buf.String()
	if !strings.Contains(out, `"correlation_id":"corr1234"`) {
		t.Errorf("output missing correlation_id: %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-uuid"`) {
		t.Errorf("output missing request_id: %s", out)
	}
}

func TestLoggerFromContextFallsBack(t *testing.T) {
	// A context without a stored logger should fall back to the global.
	logger := LoggerFromContext(context.Background())
	if logger.GetLevel() != Logger().GetLevel() {
		t.Errorf("LoggerFromContext fallback level = %v, want global %v",
			logger.GetLevel(), Logger().GetLevel())
	}
}
