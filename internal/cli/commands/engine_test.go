// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"strings"
	"testing"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/models"
)

func TestResolveTitle(t *testing.T) {
	movies := []models.Movie{
		{MovieID: 1, Title: "Toy Story (1995)"},
		{MovieID: 2, Title: "Jumanji (1995)"},
		{MovieID: 3, Title: "Heat (1995)"},
	}

	tests := []struct {
		query string
		want  int64
	}{
		{"Toy Story", 1},
		{"Toy Stroy", 1}, // transposed letters still resolve
		{"jumanji", 2},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			m, err := resolveTitle(movies, tt.query)
			if err != nil {
				t.Fatalf("resolveTitle(%q) error = %v", tt.query, err)
			}
			if m.MovieID != tt.want {
				t.Errorf("resolveTitle(%q) = movie %d, want %d", tt.query, m.MovieID, tt.want)
			}
		})
	}
}

func TestResolveTitle_NoMatch(t *testing.T) {
	movies := []models.Movie{{MovieID: 1, Title: "Toy Story (1995)"}}

	_, err := resolveTitle(movies, "zzzz qqqq")
	if err == nil || !strings.Contains(err.Error(), "no movie title matches") {
		t.Fatalf("resolveTitle() error = %v, want no match", err)
	}
}

func TestEngineConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Recommend.ALS.Factors = 32
	cfg.Recommend.ALS.Regularization = 0.05
	cfg.Recommend.ALS.Alpha = 20
	cfg.Recommend.ALS.Iterations = 12
	cfg.Recommend.KNN.Neighbors = 40
	cfg.Recommend.KNN.Similarity = "pearson"
	cfg.Recommend.KNN.Shrinkage = 50
	cfg.Recommend.KNN.MinCommonItems = 2
	cfg.Recommend.MinInteractions = 7
	cfg.Recommend.MaxCandidates = 123
	w := &Workbench{Config: cfg}

	ec := w.engineConfig()
	if ec.ALS.Factors != 32 || ec.ALS.Lambda != 0.05 || ec.ALS.Alpha != 20 || ec.ALS.Iterations != 12 {
		t.Errorf("ALS = %+v, want 32/0.05/20/12", ec.ALS)
	}
	if ec.ItemKNN.Neighbors != 40 || ec.ItemKNN.Similarity != "pearson" {
		t.Errorf("ItemKNN = %+v", ec.ItemKNN)
	}
	if ec.UserKNN.Neighbors != 40 || ec.UserKNN.Shrinkage != 50 || ec.UserKNN.MinCommon != 2 {
		t.Errorf("UserKNN = %+v", ec.UserKNN)
	}
	if ec.ItemKNN.MinSimilarity <= 0 {
		t.Errorf("MinSimilarity = %v, want the default floor kept", ec.ItemKNN.MinSimilarity)
	}
	if ec.Training.MinInteractions != 7 {
		t.Errorf("Training.MinInteractions = %d, want 7", ec.Training.MinInteractions)
	}
	if ec.Limits.MaxCandidates != 123 {
		t.Errorf("Limits.MaxCandidates = %d, want 123", ec.Limits.MaxCandidates)
	}
}
