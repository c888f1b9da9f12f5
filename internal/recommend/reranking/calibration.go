// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package reranking

import (
	"context"
	"math"
	"strconv"
	"sync"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// CalibrationConfig contains configuration for calibration reranking.
type CalibrationConfig struct {
	// Lambda balances relevance and calibration
	// (0 = pure calibration, 1 = pure relevance). Typical: 0.5-0.9.
	Lambda float64

	// AttributeWeights assigns importance to the calibrated attributes.
	// Keys: "genre", "year". If empty, only genre calibration is used
	// with weight 1.0.
	AttributeWeights map[string]float64
}

// DefaultCalibrationConfig returns the default calibration configuration.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		Lambda: 0.7,
		AttributeWeights: map[string]float64{
			"genre": 1.0,
			"year":  0.3,
		},
	}
}

// Calibration reranks recommendations so their attribute distribution
// matches a target distribution learned from rating history.
// Reference: "Calibrated Recommendations" (Steck, 2018).
//
// The objective balances relevance and calibration:
//
//	score(S) = lambda * relevance(S) + (1-lambda) * (1 - KL(target || S))
//
// The target is the pooled consumption distribution of the whole user
// base, weighted by preference. Per-request personalization is not
// possible here because rerankers see only the scored list, not the
// requesting user.
type Calibration struct {
	config CalibrationConfig

	mu sync.RWMutex
	// target[attribute][value] holds the learned target distribution,
	// normalized so each attribute sums to 1.
	target map[string]map[string]float64
}

// NewCalibration creates a calibration reranker with lambda clamped to
// [0, 1].
func NewCalibration(cfg CalibrationConfig) *Calibration {
	if cfg.Lambda < 0 {
		cfg.Lambda = 0
	}
	if cfg.Lambda > 1 {
		cfg.Lambda = 1
	}
	if len(cfg.AttributeWeights) == 0 {
		cfg.AttributeWeights = map[string]float64{"genre": 1.0}
	}

	return &Calibration{config: cfg}
}

// Name returns the reranker identifier.
func (c *Calibration) Name() string {
	return "calibration"
}

// SetTarget replaces the target distribution directly. The outer key
// is the attribute name, the inner map a normalized value distribution.
func (c *Calibration) SetTarget(target map[string]map[string]float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

// LearnFromHistory derives the target distribution from interaction
// history, weighting each interaction by its preference signal. Items
// missing from the catalog map are skipped.
func (c *Calibration) LearnFromHistory(interactions []recommend.Interaction, items map[int64]recommend.Item) {
	target := make(map[string]map[string]float64, len(c.config.AttributeWeights))
	for attr := range c.config.AttributeWeights {
		target[attr] = make(map[string]float64)
	}

	for _, inter := range interactions {
		item, ok := items[inter.ItemID]
		if !ok {
			continue
		}

		weight := inter.PreferenceWeight()
		if weight <= 0 {
			weight = 1
		}
		addCounts(target, item, weight)
	}

	for attr := range target {
		normalizeDistribution(target[attr])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

// Rerank greedily selects up to k items, trading relevance against how
// well the running selection matches the target distribution.
func (c *Calibration) Rerank(ctx context.Context, items []recommend.ScoredItem, k int) []recommend.ScoredItem {
	if len(items) <= 1 || k <= 0 {
		return items
	}

	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(items) {
		k = len(items)
	}

	c.mu.RLock()
	target := c.target
	c.mu.RUnlock()

	if len(target) == 0 || c.config.Lambda >= 1 {
		// Nothing to calibrate against: the relevance order stands.
		return items[:k]
	}

	// counts accumulates the unnormalized attribute distribution of
	// the selection so far. Candidates are evaluated by temporarily
	// adding their contribution.
	counts := make(map[string]map[string]float64, len(c.config.AttributeWeights))
	for attr := range c.config.AttributeWeights {
		counts[attr] = make(map[string]float64)
	}

	selected := make([]recommend.ScoredItem, 0, k)
	picked := make([]bool, len(items))

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)

		for i := range items {
			if picked[i] {
				continue
			}

			addCounts(counts, items[i].Item, 1)
			calib := c.calibrationScore(target, counts)
			addCounts(counts, items[i].Item, -1)

			score := c.config.Lambda*items[i].Score + (1-c.config.Lambda)*calib
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		if best < 0 {
			break
		}

		picked[best] = true
		addCounts(counts, items[best].Item, 1)
		selected = append(selected, items[best])
	}

	return selected
}

// calibrationScore scores how well the selection counts match the
// target, weighted across attributes. Returns a value in [0, 1] where
// 1 is a perfect match, or 0.5 when there is nothing to compare.
func (c *Calibration) calibrationScore(target map[string]map[string]float64, counts map[string]map[string]float64) float64 {
	var totalScore, totalWeight float64

	for attr, weight := range c.config.AttributeWeights {
		targetDist := target[attr]
		if len(targetDist) == 0 {
			continue
		}

		var total float64
		for _, v := range counts[attr] {
			total += v
		}
		if total <= 0 {
			continue
		}

		kl := klAgainstCounts(targetDist, counts[attr], total)
		totalScore += weight * (1.0 - math.Min(kl, 1.0))
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.5
	}
	return totalScore / totalWeight
}

// klAgainstCounts computes KL(target || counts) with the counts
// normalized by total on the fly. Zero counts are smoothed to avoid
// log(0). The caller guarantees total is positive.
func klAgainstCounts(target, counts map[string]float64, total float64) float64 {
	const epsilon = 1e-10

	var kl float64
	for key, pVal := range target {
		if pVal <= 0 {
			continue
		}
		qVal := counts[key] / total
		if qVal <= 0 {
			qVal = epsilon
		}
		kl += pVal * math.Log(pVal/qVal)
	}
	return kl
}

// addCounts records an item's attribute values into dist with the
// given weight. Negative weights undo a previous add.
func addCounts(dist map[string]map[string]float64, item recommend.Item, weight float64) {
	if genreDist, ok := dist["genre"]; ok {
		for _, genre := range item.Genres {
			genreDist[genre] += weight
		}
	}
	if yearDist, ok := dist["year"]; ok && item.Year > 0 {
		yearDist[decadeBucket(item.Year)] += weight
	}
}

// normalizeDistribution scales a distribution in place to sum to 1.
func normalizeDistribution(dist map[string]float64) {
	var total float64
	for _, v := range dist {
		total += v
	}
	if total <= 0 {
		return
	}
	for k := range dist {
		dist[k] /= total
	}
}

// decadeBucket groups years into decade labels, collapsing everything
// before 1950 into a single bucket.
func decadeBucket(year int) string {
	if year < 1950 {
		return "pre-1950"
	}
	return strconv.Itoa((year/10)*10) + "s"
}

var _ recommend.Reranker = (*Calibration)(nil)
