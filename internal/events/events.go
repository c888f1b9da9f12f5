// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/lodestone/internal/models"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to RatingEvent.
const SchemaVersion = 1

// TopicPrefix is the subject hierarchy root for rating events.
const TopicPrefix = "ratings"

// RatingEvent is one user-movie rating flowing through the pipeline.
type RatingEvent struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	EventID   string    `json:"event_id"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
	Rating    float64   `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // api, import, backfill
}

// NewRatingEvent creates an event with a unique ID, timestamp, and
// schema version.
func NewRatingEvent(source string) *RatingEvent {
	if source == "" {
		source = SourceAPI
	}
	return &RatingEvent{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Source:        source,
		Timestamp:     time.Now().UTC(),
	}
}

// Validate checks required fields and the rating domain.
func (e *RatingEvent) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.Source == "" {
		return &ValidationError{Field: "source", Message: "required"}
	}
	if e.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	if e.MovieID <= 0 {
		return &ValidationError{Field: "movie_id", Message: "must be positive"}
	}
	if !e.ToRating().Valid() {
		return &ValidationError{Field: "rating", Message: "must be 0.5-5.0 in half steps"}
	}
	return nil
}

// Topic returns the NATS subject for this event.
// Format: ratings.<source>, e.g. ratings.api.
func (e *RatingEvent) Topic() string {
	return TopicPrefix + "." + e.Source
}

// ToRating converts the event to the storage model. A zero Timestamp
// is left zero; the store fills in the insert time.
func (e *RatingEvent) ToRating() models.Rating {
	return models.Rating{
		UserID:    e.UserID,
		MovieID:   e.MovieID,
		Rating:    e.Rating,
		Timestamp: e.Timestamp,
	}
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Source constants for rating events.
const (
	// SourceAPI marks ratings submitted through the HTTP API.
	SourceAPI = "api"
	// SourceImport marks ratings replayed from a CSV import.
	SourceImport = "import"
	// SourceBackfill marks ratings produced by maintenance backfills.
	SourceBackfill = "backfill"
)
