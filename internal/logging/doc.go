// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package logging provides centralized zerolog-based logging for Lodestone.
//
// All packages log through a single global zerolog instance configured once
// at startup. The package provides:
//
//   - Zero-allocation structured logging
//   - JSON output for production, console output for development
//   - Context-aware logging with correlation and request ID propagation
//   - An slog.Handler adapter for libraries that require *slog.Logger
//     (the suture supervisor's sutureslog hook)
//
// # Quick Start
//
//	import "github.com/tomtom215/lodestone/internal/logging"
//
//	// Initialize at application startup
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log messages
//	logging.Info().Msg("Server starting")
//	logging.Error().Err(err).Msg("Operation failed")
//
//	// With context (correlation ID)
//	logging.Ctx(ctx).Info().Str("user", userID).Msg("Request processed")
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Use structured fields instead of string formatting:
//
//	logging.Info().Str("path", p).Int("rows", n).Msg("ingested")  // Correct
//	logging.Info().Msgf("ingested %d rows from %s", n, p)         // Avoid
package logging
