// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package models

import (
	"time"
)

// Analysis kinds persisted in the analysis_runs table. Each corresponds
// to one workbench operation.
const (
	AnalysisRules      = "rules"      // association rule mining
	AnalysisClassify   = "classify"   // supervised classification
	AnalysisCluster    = "cluster"    // k-means clustering
	AnalysisRegress    = "regress"    // linear regression
	AnalysisEvaluate   = "evaluate"   // recommender evaluation
	AnalysisGridSearch = "gridsearch" // hyperparameter grid search
)

// Analysis run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// AnalysisRun is the persisted record of a workbench analysis: which
// operation ran, with what parameters, and what it produced. Params and
// Result are stored as JSON documents; their shape depends on Kind.
type AnalysisRun struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Params      string     `json:"params"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
}

// ValidAnalysisKinds contains all persistable analysis kinds.
var ValidAnalysisKinds = []string{
	AnalysisRules,
	AnalysisClassify,
	AnalysisCluster,
	AnalysisRegress,
	AnalysisEvaluate,
	AnalysisGridSearch,
}

// IsValidAnalysisKind checks if a kind string is recognized.
func IsValidAnalysisKind(kind string) bool {
	for _, k := range ValidAnalysisKinds {
		if k == kind {
			return true
		}
	}
	return false
}
