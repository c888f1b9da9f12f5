// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import "errors"

// ErrPipelineDisabled is returned when publishing through a pipeline
// that is disabled by configuration. Callers fall back to inserting
// ratings directly.
var ErrPipelineDisabled = errors.New("event pipeline disabled")

// ErrPipelineNotStarted is returned when publishing before Start or
// after Close.
var ErrPipelineNotStarted = errors.New("event pipeline not started")

// ErrPublisherClosed is returned when publishing through a closed publisher.
var ErrPublisherClosed = errors.New("publisher is closed")
