// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package recommend

import (
	"math"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig() does not validate: %v", err)
	}
	if cfg.ALS.Factors != 64 {
		t.Errorf("ALS.Factors = %d, want 64", cfg.ALS.Factors)
	}
	if cfg.Limits.DefaultK != 10 {
		t.Errorf("Limits.DefaultK = %d, want 10", cfg.Limits.DefaultK)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "zero als factors",
			mutate:  func(c *Config) { c.ALS.Factors = 0 },
			wantErr: true,
		},
		{
			name:    "negative als lambda",
			mutate:  func(c *Config) { c.ALS.Lambda = -0.1 },
			wantErr: true,
		},
		{
			name:    "negative als alpha",
			mutate:  func(c *Config) { c.ALS.Alpha = -1 },
			wantErr: true,
		},
		{
			name:    "zero als iterations",
			mutate:  func(c *Config) { c.ALS.Iterations = 0 },
			wantErr: true,
		},
		{
			name:    "zero knn neighbors",
			mutate:  func(c *Config) { c.ItemKNN.Neighbors = 0 },
			wantErr: true,
		},
		{
			name:    "unknown similarity metric",
			mutate:  func(c *Config) { c.UserKNN.Similarity = "euclidean" },
			wantErr: true,
		},
		{
			name:    "empty similarity metric allowed",
			mutate:  func(c *Config) { c.ItemKNN.Similarity = "" },
			wantErr: false,
		},
		{
			name:    "negative shrinkage",
			mutate:  func(c *Config) { c.ItemKNN.Shrinkage = -5 },
			wantErr: true,
		},
		{
			name:    "min similarity above one",
			mutate:  func(c *Config) { c.UserKNN.MinSimilarity = 1.5 },
			wantErr: true,
		},
		{
			name:    "negative min similarity",
			mutate:  func(c *Config) { c.ItemKNN.MinSimilarity = -0.1 },
			wantErr: true,
		},
		{
			name:    "negative half life",
			mutate:  func(c *Config) { c.Popularity.HalfLifeDays = -1 },
			wantErr: true,
		},
		{
			name:    "zero training timeout",
			mutate:  func(c *Config) { c.Training.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "zero max candidates",
			mutate:  func(c *Config) { c.Limits.MaxCandidates = 0 },
			wantErr: true,
		},
		{
			name:    "max k below default k",
			mutate:  func(c *Config) { c.Limits.MaxK = 5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlgorithmWeights_Normalize(t *testing.T) {
	t.Parallel()

	t.Run("sums to one", func(t *testing.T) {
		t.Parallel()

		w := AlgorithmWeights{ALS: 2, ItemKNN: 1, UserKNN: 1, Popularity: 0}
		n := w.Normalize()

		sum := n.ALS + n.ItemKNN + n.UserKNN + n.Popularity
		if math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("normalized sum = %f, want 1.0", sum)
		}
		if n.ALS != 0.5 {
			t.Errorf("ALS = %f, want 0.5", n.ALS)
		}
		if n.Popularity != 0 {
			t.Errorf("Popularity = %f, want 0", n.Popularity)
		}
	})

	t.Run("zero weights distribute equally", func(t *testing.T) {
		t.Parallel()

		n := AlgorithmWeights{}.Normalize()
		for name, got := range n.ToMap() {
			if got != 0.25 {
				t.Errorf("%s = %f, want 0.25", name, got)
			}
		}
	})
}

func TestAlgorithmWeights_ToMap(t *testing.T) {
	t.Parallel()

	m := AlgorithmWeights{ALS: 0.4, ItemKNN: 0.3, UserKNN: 0.2, Popularity: 0.1}.ToMap()

	want := map[string]float64{
		"als":        0.4,
		"item_knn":   0.3,
		"user_knn":   0.2,
		"popularity": 0.1,
	}
	for name, weight := range want {
		if m[name] != weight {
			t.Errorf("ToMap()[%q] = %f, want %f", name, m[name], weight)
		}
	}
	if len(m) != len(want) {
		t.Errorf("ToMap() has %d entries, want %d", len(m), len(want))
	}
}

func TestConfig_Clone(t *testing.T) {
	t.Parallel()

	original := DefaultConfig()
	clone := original.Clone()

	clone.ALS.Factors = 128
	clone.Weights.ALS = 0.9

	if original.ALS.Factors != 64 {
		t.Error("mutating clone changed original ALS.Factors")
	}
	if original.Weights.ALS != 0.45 {
		t.Error("mutating clone changed original Weights.ALS")
	}
}
