// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler implements slog.Handler on top of zerolog, so libraries
// that want an *slog.Logger (sutureslog among them) end up writing to
// the same sink as the rest of the process.
//
// Group names become dotted key prefixes: WithGroup("db") plus an
// attribute "table" emits "db.table".
type SlogHandler struct {
	logger zerolog.Logger
	bound  []boundAttr
	prefix string
}

// boundAttr is an attribute captured by WithAttrs together with the
// group prefix that was active when it was added.
type boundAttr struct {
	prefix string
	attr   slog.Attr
}

// NewSlogHandler returns a handler writing to the global logger.
func NewSlogHandler() *SlogHandler {
	return NewSlogHandlerWithLogger(Logger())
}

// NewSlogHandlerWithLogger returns a handler writing to the given
// logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSlogHandlerWithLogger(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled reports whether records at the given level would be emitted.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= zerologLevel(level)
}

// Handle emits the record through zerolog.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(zerologLevel(record.Level))

	for _, b := range h.bound {
		event = appendAttr(event, b.prefix, b.attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = appendAttr(event, h.prefix, attr)
		return true
	})

	event.Msg(record.Message)
	return nil
}

// WithAttrs returns a handler that adds attrs to every record, under
// the currently open groups.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]boundAttr, len(h.bound), len(h.bound)+len(attrs))
	copy(bound, h.bound)
	for _, attr := range attrs {
		bound = append(bound, boundAttr{prefix: h.prefix, attr: attr})
	}
	return &SlogHandler{logger: h.logger, bound: bound, prefix: h.prefix}
}

// WithGroup returns a handler that qualifies subsequent attribute keys
// with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, bound: h.bound, prefix: h.prefix + name + "."}
}

// appendAttr writes one attribute onto the event, flattening groups
// into dotted keys.
func appendAttr(event *zerolog.Event, prefix string, attr slog.Attr) *zerolog.Event {
	value := attr.Value.Resolve()

	if value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		// An empty group key inlines its members, per the slog
		// handler contract.
		if attr.Key != "" {
			groupPrefix += attr.Key + "."
		}
		for _, member := range value.Group() {
			event = appendAttr(event, groupPrefix, member)
		}
		return event
	}

	key := prefix + attr.Key
	switch value.Kind() {
	case slog.KindString:
		return event.Str(key, value.String())
	case slog.KindInt64:
		return event.Int64(key, value.Int64())
	case slog.KindUint64:
		return event.Uint64(key, value.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, value.Float64())
	case slog.KindBool:
		return event.Bool(key, value.Bool())
	case slog.KindDuration:
		return event.Dur(key, value.Duration())
	case slog.KindTime:
		return event.Time(key, value.Time())
	default:
		return event.Interface(key, value.Any())
	}
}

// zerologLevel maps an slog level onto the zerolog scale. Levels
// below debug map to trace so custom verbose levels stay visible when
// trace is enabled.
func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// NewSlogLogger returns an *slog.Logger backed by the global zerolog
// logger.
//
//	slogger := logging.NewSlogLogger()
//	handler := &sutureslog.Handler{Logger: slogger}
func NewSlogLogger() *slog.Logger {
	return slog.New(NewSlogHandler())
}
