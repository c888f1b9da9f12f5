// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package algorithms implements recommendation algorithms for the hybrid engine.
//
// Each algorithm implements the recommend.Algorithm interface and can be
// registered with the recommendation engine.
//
// # Algorithm Categories
//
//   - Matrix Factorization: implicit-feedback ALS
//   - Neighborhood CF: item-based and user-based KNN
//   - Popularity: confidence-weighted baseline with recency decay
//
// # Thread Safety
//
// All algorithms are designed to be safe for concurrent use. Training
// acquires an exclusive lock while prediction uses a shared lock.
package algorithms

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// BaseAlgorithm provides common functionality for all algorithms.
type BaseAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version.
func (b *BaseAlgorithm) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *BaseAlgorithm) markTrained() {
	// Lock is already held by caller via acquireTrainLock()
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

// acquireTrainLock acquires the exclusive training lock.
func (b *BaseAlgorithm) acquireTrainLock() {
	b.mu.Lock()
}

// releaseTrainLock releases the exclusive training lock.
func (b *BaseAlgorithm) releaseTrainLock() {
	b.mu.Unlock()
}

// acquirePredictLock acquires the shared prediction lock.
func (b *BaseAlgorithm) acquirePredictLock() {
	b.mu.RLock()
}

// releasePredictLock releases the shared prediction lock.
func (b *BaseAlgorithm) releasePredictLock() {
	b.mu.RUnlock()
}

// ContextCancelled reports whether the context has been cancelled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// normalizeScores normalizes scores to [0, 1] range using min-max normalization.
func normalizeScores(scores map[int64]float64) map[int64]float64 {
	if len(scores) == 0 {
		return scores
	}

	// Find min and max
	var minScore, maxScore float64
	first := true
	for _, score := range scores {
		if first {
			minScore, maxScore = score, score
			first = false
			continue
		}
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	// Avoid division by zero
	rang := maxScore - minScore
	if rang == 0 {
		// All scores are equal - return 0.5 for all
		for id := range scores {
			scores[id] = 0.5
		}
		return scores
	}

	// Normalize
	for id, score := range scores {
		scores[id] = (score - minScore) / rang
	}

	return scores
}

// rankScores converts a score map into a ranked slice, truncated to k.
// Ties break toward the lower item ID so rankings are deterministic.
func rankScores(scores map[int64]float64, k int) []recommend.ScoredID {
	ranked := make([]recommend.ScoredID, 0, len(scores))
	for id, score := range scores {
		ranked = append(ranked, recommend.ScoredID{ItemID: id, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}

	return ranked
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Ensure all algorithms implement the interface.
var (
	_ recommend.Algorithm = (*ALS)(nil)
	_ recommend.Algorithm = (*ItemKNN)(nil)
	_ recommend.Algorithm = (*UserKNN)(nil)
	_ recommend.Algorithm = (*Popularity)(nil)
)
