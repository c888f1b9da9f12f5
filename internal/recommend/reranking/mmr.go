// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package reranking

import (
	"context"
	"math"
	"strings"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// maxRerankSize caps the selection loop regardless of the requested k.
const maxRerankSize = 10000

// MMR implements Maximal Marginal Relevance reranking. It balances
// relevance and diversity by iteratively selecting items that score
// well and differ from what has already been selected:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Similarity is genre-based Jaccard, so two dramas compete with each
// other harder than a drama competes with a documentary.
type MMR struct {
	// lambda balances relevance vs. diversity (1.0 = pure relevance).
	lambda float64
}

// NewMMR creates an MMR reranker with lambda clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank greedily selects up to k items by marginal relevance. The
// input must already be sorted by descending relevance.
func (m *MMR) Rerank(ctx context.Context, items []recommend.ScoredItem, k int) []recommend.ScoredItem {
	if len(items) == 0 || k <= 0 {
		return items
	}

	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(items) {
		k = len(items)
	}

	if m.lambda >= 1.0 {
		// Pure relevance: the input order already wins.
		return items[:k]
	}

	selected := make([]recommend.ScoredItem, 0, k)
	picked := make([]bool, len(items))

	// maxSim[i] is the highest similarity between candidate i and any
	// selected item, maintained incrementally so each pair is computed
	// at most once per pick.
	maxSim := make([]float64, len(items))

	for len(selected) < k {
		best := -1
		bestScore := math.Inf(-1)

		for i := range items {
			if picked[i] {
				continue
			}
			score := m.lambda*items[i].Score - (1-m.lambda)*maxSim[i]
			if score > bestScore {
				bestScore = score
				best = i
			}
		}

		if best < 0 {
			break
		}

		picked[best] = true
		selected = append(selected, items[best])

		for i := range items {
			if picked[i] {
				continue
			}
			if sim := genreJaccard(items[i].Item.Genres, items[best].Item.Genres); sim > maxSim[i] {
				maxSim[i] = sim
			}
		}
	}

	return selected
}

// genreJaccard computes the Jaccard similarity between two genre
// lists, case-insensitively. Either list being empty yields zero.
func genreJaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, g := range a {
		setA[strings.ToLower(g)] = struct{}{}
	}

	intersection := 0
	setB := make(map[string]struct{}, len(b))
	for _, g := range b {
		lg := strings.ToLower(g)
		if _, dup := setB[lg]; dup {
			continue
		}
		setB[lg] = struct{}{}
		if _, ok := setA[lg]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

var _ recommend.Reranker = (*MMR)(nil)
