// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights defines the relative contribution of each algorithm.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Weights AlgorithmWeights `json:"weights"`

	// ALS contains parameters for the ALS algorithm.
	ALS ALSParams `json:"als"`

	// ItemKNN contains parameters for item-based neighborhood CF.
	ItemKNN KNNParams `json:"item_knn"`

	// UserKNN contains parameters for user-based neighborhood CF.
	UserKNN KNNParams `json:"user_knn"`

	// Popularity contains parameters for the popularity baseline.
	Popularity PopularityParams `json:"popularity"`

	// Training contains training schedule parameters.
	Training TrainingConfig `json:"training"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`

	// Cache contains caching parameters.
	Cache CacheConfig `json:"cache"`

	// Seed is the random seed for deterministic behavior.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed"`
}

// AlgorithmWeights defines the relative contribution of each algorithm.
type AlgorithmWeights struct {
	// ALS is the weight for alternating least squares.
	ALS float64 `json:"als"`

	// ItemKNN is the weight for item-based neighborhood CF.
	ItemKNN float64 `json:"item_knn"`

	// UserKNN is the weight for user-based neighborhood CF.
	UserKNN float64 `json:"user_knn"`

	// Popularity is the weight for popularity-based ranking.
	Popularity float64 `json:"popularity"`
}

// Normalize returns a copy with weights normalized to sum to 1.0.
func (w AlgorithmWeights) Normalize() AlgorithmWeights {
	sum := w.ALS + w.ItemKNN + w.UserKNN + w.Popularity

	if sum == 0 {
		const equalWeight = 1.0 / 4.0
		return AlgorithmWeights{
			ALS: equalWeight, ItemKNN: equalWeight,
			UserKNN: equalWeight, Popularity: equalWeight,
		}
	}

	return AlgorithmWeights{
		ALS:        w.ALS / sum,
		ItemKNN:    w.ItemKNN / sum,
		UserKNN:    w.UserKNN / sum,
		Popularity: w.Popularity / sum,
	}
}

// ToMap returns the weights keyed by algorithm name.
func (w AlgorithmWeights) ToMap() map[string]float64 {
	return map[string]float64{
		"als":        w.ALS,
		"item_knn":   w.ItemKNN,
		"user_knn":   w.UserKNN,
		"popularity": w.Popularity,
	}
}

// ALSParams contains parameters for the ALS algorithm.
type ALSParams struct {
	// Factors is the number of latent factors.
	// Higher values capture more nuance but increase memory.
	// Default: 64.
	Factors int `json:"factors"`

	// Lambda is the L2 regularization parameter.
	// Default: 0.1.
	Lambda float64 `json:"lambda"`

	// Alpha scales the confidence transform c = 1 + alpha*r.
	// Default: 40.0.
	Alpha float64 `json:"alpha"`

	// Iterations is the number of alternating sweeps.
	// Default: 15.
	Iterations int `json:"iterations"`
}

// KNNParams contains parameters for neighborhood CF.
type KNNParams struct {
	// Neighbors is the number of neighbors kept per user or item.
	// Default: 50.
	Neighbors int `json:"neighbors"`

	// Similarity selects the similarity function.
	// Options: "cosine", "pearson", "jaccard". Default: "cosine".
	Similarity string `json:"similarity"`

	// Shrinkage dampens similarities backed by few co-ratings.
	// Default: 100.
	Shrinkage float64 `json:"shrinkage"`

	// MinCommon is the minimum number of co-ratings required for a
	// similarity to count at all. Default: 3.
	MinCommon int `json:"min_common"`

	// MinSimilarity drops neighbors whose similarity falls below this
	// threshold. Default: 0.01.
	MinSimilarity float64 `json:"min_similarity"`
}

// PopularityParams contains parameters for the popularity baseline.
type PopularityParams struct {
	// HalfLifeDays is the half-life of the recency decay in days.
	// Zero disables decay. Default: 90.
	HalfLifeDays float64 `json:"half_life_days"`
}

// TrainingConfig contains training schedule parameters.
type TrainingConfig struct {
	// Interval is the time between scheduled training runs.
	// Default: 24h.
	Interval time.Duration `json:"interval"`

	// MinInteractions is the minimum number of interactions required
	// to train. Training is skipped if below this threshold.
	// Default: 100.
	MinInteractions int `json:"min_interactions"`

	// MinUsers is the minimum number of unique users required to train.
	// Default: 5.
	MinUsers int `json:"min_users"`

	// MinItems is the minimum number of unique items required to train.
	// Default: 10.
	MinItems int `json:"min_items"`

	// Timeout is the maximum time allowed for a training run.
	// Default: 10m.
	Timeout time.Duration `json:"timeout"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// MaxCandidates caps how many items a single algorithm is asked
	// to rank for blending. Default: 500.
	MaxCandidates int `json:"max_candidates"`

	// DefaultK is the default number of recommendations to return.
	// Default: 10.
	DefaultK int `json:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 100.
	MaxK int `json:"max_k"`

	// PredictionTimeout is the maximum time for a single prediction.
	// Default: 5s.
	PredictionTimeout time.Duration `json:"prediction_timeout"`
}

// CacheConfig contains caching parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl"`

	// MaxEntries is the maximum number of cached entries.
	// Default: 10000.
	MaxEntries int `json:"max_entries"`

	// InvalidateOnTrain controls whether cache is cleared after training.
	// Default: true.
	InvalidateOnTrain bool `json:"invalidate_on_train"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: AlgorithmWeights{
			ALS:        0.45,
			ItemKNN:    0.25,
			UserKNN:    0.20,
			Popularity: 0.10,
		},
		ALS: ALSParams{
			Factors:    64,
			Lambda:     0.1,
			Alpha:      40.0,
			Iterations: 15,
		},
		ItemKNN: KNNParams{
			Neighbors:     50,
			Similarity:    "cosine",
			Shrinkage:     100,
			MinCommon:     3,
			MinSimilarity: 0.01,
		},
		UserKNN: KNNParams{
			Neighbors:     50,
			Similarity:    "cosine",
			Shrinkage:     100,
			MinCommon:     3,
			MinSimilarity: 0.01,
		},
		Popularity: PopularityParams{
			HalfLifeDays: 90,
		},
		Training: TrainingConfig{
			Interval:        24 * time.Hour,
			MinInteractions: 100,
			MinUsers:        5,
			MinItems:        10,
			Timeout:         10 * time.Minute,
		},
		Limits: LimitsConfig{
			MaxCandidates:     500,
			DefaultK:          10,
			MaxK:              100,
			PredictionTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:           true,
			TTL:               5 * time.Minute,
			MaxEntries:        10000,
			InvalidateOnTrain: true,
		},
		Seed: 42,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.ALS.Factors < 1 {
		return fmt.Errorf("als.factors must be positive, got %d", c.ALS.Factors)
	}
	if c.ALS.Lambda < 0 {
		return fmt.Errorf("als.lambda must be non-negative, got %f", c.ALS.Lambda)
	}
	if c.ALS.Alpha < 0 {
		return fmt.Errorf("als.alpha must be non-negative, got %f", c.ALS.Alpha)
	}
	if c.ALS.Iterations < 1 {
		return fmt.Errorf("als.iterations must be positive, got %d", c.ALS.Iterations)
	}

	for name, knn := range map[string]KNNParams{"item_knn": c.ItemKNN, "user_knn": c.UserKNN} {
		if knn.Neighbors < 1 {
			return fmt.Errorf("%s.neighbors must be positive, got %d", name, knn.Neighbors)
		}
		switch knn.Similarity {
		case "", "cosine", "pearson", "jaccard":
		default:
			return fmt.Errorf("%s.similarity must be cosine, pearson, or jaccard, got %q", name, knn.Similarity)
		}
		if knn.Shrinkage < 0 {
			return fmt.Errorf("%s.shrinkage must be non-negative, got %f", name, knn.Shrinkage)
		}
		if knn.MinSimilarity < 0 || knn.MinSimilarity > 1 {
			return fmt.Errorf("%s.min_similarity must be in [0, 1], got %f", name, knn.MinSimilarity)
		}
	}

	if c.Popularity.HalfLifeDays < 0 {
		return fmt.Errorf("popularity.half_life_days must be non-negative, got %f", c.Popularity.HalfLifeDays)
	}

	if c.Training.MinInteractions < 0 {
		return fmt.Errorf("training.min_interactions must be non-negative, got %d", c.Training.MinInteractions)
	}
	if c.Training.Timeout <= 0 {
		return fmt.Errorf("training.timeout must be positive, got %v", c.Training.Timeout)
	}

	if c.Limits.MaxCandidates < 1 {
		return fmt.Errorf("limits.max_candidates must be positive, got %d", c.Limits.MaxCandidates)
	}
	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types.
	clone := *c
	return &clone
}
