// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  zerolog.Level
	}{
		{name: "trace", input: "trace", want: zerolog.TraceLevel},
		{name: "debug", input: "debug", want: zerolog.DebugLevel},
		{name: "info", input: "info", want: zerolog.InfoLevel},
		{name: "warn", input: "warn", want: zerolog.WarnLevel},
		{name: "warning alias", input: "warning", want: zerolog.WarnLevel},
		{name: "error", input: "error", want: zerolog.ErrorLevel},
		{name: "fatal", input: "fatal", want: zerolog.FatalLevel},
		{name: "panic", input: "panic", want: zerolog.PanicLevel},
		{name: "disabled", input: "disabled", want: zerolog.Disabled},
		{name: "mixed case", input: "DEBUG", want: zerolog.DebugLevel},
		{name: "unknown defaults to info", input: "bogus", want: zerolog.InfoLevel},
		{name: "empty defaults to info", input: "", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitAndLog(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Level:     "debug",
		Format:    "json",
		Timestamp: false,
		Output:    &buf,
	})
	defer Init(DefaultConfig())

	Info().Str("component", "test").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("output missing level field: %s", out)
	}
	if !strings.Contains(out, `"component":"test"`) {
		t.Errorf("output missing structured field: %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("output missing message: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{
		Level:     "warn",
		Format:    "json",
		Timestamp: false,
		Output:    &buf,
	})
	defer Init(DefaultConfig())

	Debug().Msg("suppressed")
	Info().Msg("suppressed")
	Warn().Msg("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Errorf("expected debug/info suppressed at warn level, got: %s", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("expected warn message emitted, got: %s", out)
	}
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Int("rows", 42).Msg("ingested")

	out := buf.String()
	if !strings.Contains(out, `"rows":42`) {
		t.Errorf("test logger output missing field: %s", out)
	}
	if !strings.Contains(out, `"time"`) {
		t.Errorf("test logger output missing timestamp: %s", out)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	original := Logger()
	defer SetLogger(original)

	SetLogger(NewTestLogger(&buf))
	Info().Msg("replaced")

	if !strings.Contains(buf.String(), "replaced") {
		t.Errorf("SetLogger did not take effect: %s", buf.String())
	}
}
