// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package algorithms

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// hoursPerDay converts timestamp ages into decay units.
const hoursPerDay = 24.0

// Popularity implements a popularity-based recommendation algorithm.
// It ranks items by their total preference weight, providing a simple
// but effective baseline for recommendations.
//
// This algorithm is useful for:
//   - Cold start users with no history
//   - Fallback when other algorithms fail
//   - Blending with personalized scores
//
// The popularity score is computed as:
//
//	score(item) = sum(weight * decay) for all interactions with item
//
// Recency decay halves an interaction's contribution every half-life.
// Ages are measured against the newest timestamp in the training data
// rather than the wall clock, so training stays deterministic.
type Popularity struct {
	BaseAlgorithm

	// halfLifeDays of zero disables decay.
	halfLifeDays float64

	// Trained model
	itemScores map[int64]float64
	ranked     []recommend.ScoredID // normalized, sorted by score descending
}

// NewPopularity creates a new popularity algorithm.
func NewPopularity(cfg recommend.PopularityParams) *Popularity {
	if cfg.HalfLifeDays < 0 {
		cfg.HalfLifeDays = 0
	}

	return &Popularity{
		BaseAlgorithm: NewBaseAlgorithm("popularity"),
		halfLifeDays:  cfg.HalfLifeDays,
		itemScores:    make(map[int64]float64),
	}
}

// Train computes popularity scores from interactions.
//
//nolint:gocritic // rangeValCopy: Interaction is passed by value in range, acceptable for clarity
func (p *Popularity) Train(ctx context.Context, interactions []recommend.Interaction) error {
	p.acquireTrainLock()
	defer p.releaseTrainLock()

	// Clear previous model
	p.itemScores = make(map[int64]float64)
	p.ranked = nil

	if len(interactions) == 0 {
		p.markTrained()
		return nil
	}

	// Anchor decay at the newest interaction in the batch.
	var latest time.Time
	for _, inter := range interactions {
		if inter.Timestamp.After(latest) {
			latest = inter.Timestamp
		}
	}

	for _, inter := range interactions {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		weight := inter.PreferenceWeight()
		if weight <= 0 {
			// An interaction with no rating still signals interest.
			weight = 1
		}

		if p.halfLifeDays > 0 && !latest.IsZero() && !inter.Timestamp.IsZero() {
			ageDays := latest.Sub(inter.Timestamp).Hours() / hoursPerDay
			weight *= math.Pow(2, -ageDays/p.halfLifeDays)
		}

		p.itemScores[inter.ItemID] += weight
	}

	p.rebuildRanking()
	p.markTrained()
	return nil
}

// rebuildRanking refreshes the normalized ranked slice from the raw
// scores. Must be called while holding the training lock.
func (p *Popularity) rebuildRanking() {
	normalized := make(map[int64]float64, len(p.itemScores))
	for id, score := range p.itemScores {
		normalized[id] = score
	}
	p.ranked = rankScores(normalizeScores(normalized), 0)
}

// Predict returns the most popular items. The user ID is ignored, so
// this works for users never seen at training time. Exclusion of the
// caller's own history is the caller's responsibility.
func (p *Popularity) Predict(_ context.Context, _ int64, k int, exclude map[int64]struct{}) ([]recommend.ScoredID, error) {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if !p.trained || len(p.ranked) == 0 {
		return nil, nil
	}

	result := make([]recommend.ScoredID, 0, min(k, len(p.ranked)))
	for _, scored := range p.ranked {
		if _, skip := exclude[scored.ItemID]; skip {
			continue
		}
		result = append(result, scored)
		if k > 0 && len(result) >= k {
			break
		}
	}

	return result, nil
}

// PredictSimilar returns popular items (similarity is not applicable
// for popularity), excluding the source item itself.
func (p *Popularity) PredictSimilar(ctx context.Context, itemID int64, k int) ([]recommend.ScoredID, error) {
	return p.Predict(ctx, 0, k, map[int64]struct{}{itemID: {}})
}

// GetTopK returns the top K most popular item IDs.
func (p *Popularity) GetTopK(k int) []int64 {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if k <= 0 || len(p.ranked) == 0 {
		return nil
	}

	if k > len(p.ranked) {
		k = len(p.ranked)
	}

	result := make([]int64, k)
	for i := 0; i < k; i++ {
		result[i] = p.ranked[i].ItemID
	}
	return result
}

// PopularityState is a serializable snapshot of a trained popularity model.
type PopularityState struct {
	Scores    map[int64]float64
	Version   int
	TrainedAt time.Time
}

// ExportState returns a snapshot of the trained model for persistence.
func (p *Popularity) ExportState() (*PopularityState, error) {
	p.acquirePredictLock()
	defer p.releasePredictLock()

	if !p.trained {
		return nil, fmt.Errorf("popularity: model not trained")
	}

	scores := make(map[int64]float64, len(p.itemScores))
	for id, score := range p.itemScores {
		scores[id] = score
	}

	return &PopularityState{
		Scores:    scores,
		Version:   p.version,
		TrainedAt: p.lastTrainedAt,
	}, nil
}

// RestoreState loads a previously exported model snapshot.
func (p *Popularity) RestoreState(state *PopularityState) error {
	if state == nil {
		return fmt.Errorf("popularity: nil state")
	}

	p.acquireTrainLock()
	defer p.releaseTrainLock()

	p.itemScores = make(map[int64]float64, len(state.Scores))
	for id, score := range state.Scores {
		p.itemScores[id] = score
	}
	p.rebuildRanking()
	p.trained = true
	p.version = state.Version
	p.lastTrainedAt = state.TrainedAt
	return nil
}
