// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package models

import (
	"time"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	ModelsTrained     bool       `json:"models_trained"`
	EventsEnabled     bool       `json:"events_enabled"`
	LastIngestTime    *time.Time `json:"last_ingest_time,omitempty"`
	LastTrainingTime  *time.Time `json:"last_training_time,omitempty"`
	Uptime            float64    `json:"uptime_seconds"`
}

// SystemStats represents overall workbench statistics for the dashboard
type SystemStats struct {
	NumRatings        int        `json:"num_ratings"`
	NumMovies         int        `json:"num_movies"`
	NumUsers          int        `json:"num_users"`
	NumAnalysisRuns   int        `json:"num_analysis_runs"`
	LastIngestTime    *time.Time `json:"last_ingest_time,omitempty"`
	LastTrainingTime  *time.Time `json:"last_training_time,omitempty"`
	DatabaseSizeBytes int64      `json:"database_size_bytes"`
}
