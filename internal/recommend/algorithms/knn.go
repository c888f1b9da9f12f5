// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package algorithms

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// neighbor pairs an ID with its similarity to some target.
type neighbor struct {
	ID         int64
	Similarity float64
}

// similarityParams bundles the knobs shared by both KNN variants.
type similarityParams struct {
	metric        string
	shrinkage     float64
	minCommon     int
	minSimilarity float64
}

func newSimilarityParams(cfg recommend.KNNParams) similarityParams {
	return similarityParams{
		metric:        cfg.Similarity,
		shrinkage:     cfg.Shrinkage,
		minCommon:     cfg.MinCommon,
		minSimilarity: cfg.MinSimilarity,
	}
}

// similarity computes the configured similarity between two sparse
// vectors. Pairs with fewer than minCommon overlapping keys score 0.
func (p similarityParams) similarity(a, b map[int64]float64) float64 {
	var common []int64
	for key := range a {
		if _, ok := b[key]; ok {
			common = append(common, key)
		}
	}

	if len(common) < p.minCommon {
		return 0
	}

	var sim float64
	switch p.metric {
	case "pearson":
		sim = pearsonSim(a, b, common)
	case "jaccard":
		sim = float64(len(common)) / float64(len(a)+len(b)-len(common))
	default:
		sim = cosineSim(a, b, common)
	}

	// Shrink similarities backed by few co-ratings toward zero.
	if p.shrinkage > 0 {
		sim = sim * float64(len(common)) / (float64(len(common)) + p.shrinkage)
	}

	return sim
}

func cosineSim(a, b map[int64]float64, common []int64) float64 {
	var dot, normA, normB float64
	for _, key := range common {
		dot += a[key] * b[key]
	}
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func pearsonSim(a, b map[int64]float64, common []int64) float64 {
	if len(common) == 0 {
		return 0
	}

	// Compute means over common keys
	var sumA, sumB float64
	for _, key := range common {
		sumA += a[key]
		sumB += b[key]
	}
	meanA := sumA / float64(len(common))
	meanB := sumB / float64(len(common))

	var num, denA, denB float64
	for _, key := range common {
		diffA := a[key] - meanA
		diffB := b[key] - meanB
		num += diffA * diffB
		denA += diffA * diffA
		denB += diffB * diffB
	}

	if denA == 0 || denB == 0 {
		return 0
	}

	return num / (math.Sqrt(denA) * math.Sqrt(denB))
}

// computeNeighbors finds the top k most similar IDs to selfID among
// ids, keeping only similarities at or above the configured floor.
func computeNeighbors(selfID int64, vectors map[int64]map[int64]float64, ids []int64, p similarityParams, k int) []neighbor {
	selfVec := vectors[selfID]
	if len(selfVec) == 0 {
		return nil
	}

	neighbors := make([]neighbor, 0, len(ids))
	for _, otherID := range ids {
		if otherID == selfID {
			continue
		}

		sim := p.similarity(selfVec, vectors[otherID])
		if sim >= p.minSimilarity && sim > 0 {
			neighbors = append(neighbors, neighbor{ID: otherID, Similarity: sim})
		}
	}

	// Sort by similarity (descending) and take top K. Ties break
	// toward the lower ID so rankings stay deterministic.
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].ID < neighbors[j].ID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}

	return neighbors
}

// precomputeAllNeighbors fills a neighbor table for every ID using a
// worker pool. Returns ctx.Err() if cancelled mid-computation.
func precomputeAllNeighbors(ctx context.Context, vectors map[int64]map[int64]float64, p similarityParams, k, workers int) (map[int64][]neighbor, error) {
	ids := make([]int64, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}

	table := make(map[int64][]neighbor, len(ids))
	var wg sync.WaitGroup
	var mu sync.Mutex
	chunkSize := (len(ids) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(chunk []int64) {
			defer wg.Done()

			for _, id := range chunk {
				if ContextCancelled(ctx) {
					return
				}

				neighbors := computeNeighbors(id, vectors, ids, p, k)

				mu.Lock()
				table[id] = neighbors
				mu.Unlock()
			}
		}(ids[start:end])
	}

	wg.Wait()

	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	return table, nil
}

// ========== Item-Based Collaborative Filtering ==========

// ItemKNN implements item-based collaborative filtering.
// It recommends items similar to what the user has liked before.
//
// For a target user u and candidate item i:
// score(u, i) = sum_{j in N(i)} sim(i, j) * r(u, j) / sum_{j in N(i)} |sim(i, j)|
//
// where N(i) is the set of k most similar items to i that user u has rated.
type ItemKNN struct {
	BaseAlgorithm
	config  recommend.KNNParams
	workers int

	// itemVectors maps item ID to its user-rating vector.
	itemVectors map[int64]map[int64]float64

	// userItems maps user ID to the items they rated.
	userItems map[int64][]int64

	// itemNeighbors holds the precomputed top-K neighbor lists.
	itemNeighbors map[int64][]neighbor
}

// NewItemKNN creates a new item-based CF algorithm.
// Invalid parameters are replaced with defaults.
func NewItemKNN(cfg recommend.KNNParams) *ItemKNN {
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = 50
	}
	if cfg.MinSimilarity < 0 {
		cfg.MinSimilarity = 0
	}

	return &ItemKNN{
		BaseAlgorithm: NewBaseAlgorithm("item_knn"),
		config:        cfg,
		workers:       runtime.NumCPU(),
	}
}

// Train builds item vectors and precomputes item-item neighbor lists.
//
//nolint:gocritic // rangeValCopy is acceptable for clarity
func (k *ItemKNN) Train(ctx context.Context, interactions []recommend.Interaction) error {
	k.acquireTrainLock()
	defer k.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Build item vectors. Duplicate interactions keep the highest
	// preference weight.
	itemVectors := make(map[int64]map[int64]float64)
	for _, inter := range interactions {
		weight := inter.PreferenceWeight()
		if weight <= 0 {
			continue
		}
		if itemVectors[inter.ItemID] == nil {
			itemVectors[inter.ItemID] = make(map[int64]float64)
		}
		if weight > itemVectors[inter.ItemID][inter.UserID] {
			itemVectors[inter.ItemID][inter.UserID] = weight
		}
	}

	// Build user-item index
	userItems := make(map[int64][]int64)
	for itemID, userMap := range itemVectors {
		for userID := range userMap {
			userItems[userID] = append(userItems[userID], itemID)
		}
	}

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	neighbors, err := precomputeAllNeighbors(ctx, itemVectors, newSimilarityParams(k.config), k.config.Neighbors, k.workers)
	if err != nil {
		return err
	}

	k.itemVectors = itemVectors
	k.userItems = userItems
	k.itemNeighbors = neighbors
	k.markTrained()
	return nil
}

// Predict scores every unrated item by the similarity-weighted average
// of the user's ratings over that item's neighbor list.
func (k *ItemKNN) Predict(_ context.Context, userID int64, topK int, exclude map[int64]struct{}) ([]recommend.ScoredID, error) {
	k.acquirePredictLock()
	defer k.releasePredictLock()

	if !k.trained {
		return nil, nil
	}

	rated := k.userItems[userID]
	if len(rated) == 0 {
		return nil, nil
	}

	// Build user ratings map for quick lookup
	userRatings := make(map[int64]float64, len(rated))
	for _, itemID := range rated {
		if vec, ok := k.itemVectors[itemID]; ok {
			if rating, ok := vec[userID]; ok {
				userRatings[itemID] = rating
			}
		}
	}

	scores := make(map[int64]float64)
	for itemID, neighbors := range k.itemNeighbors {
		if _, alreadyRated := userRatings[itemID]; alreadyRated {
			continue
		}
		if _, skip := exclude[itemID]; skip {
			continue
		}

		var num, den float64
		for _, n := range neighbors {
			if rating, ok := userRatings[n.ID]; ok {
				num += n.Similarity * rating
				den += math.Abs(n.Similarity)
			}
		}

		if den > 0 {
			scores[itemID] = num / den
		}
	}

	return rankScores(normalizeScores(scores), topK), nil
}

// PredictSimilar returns the precomputed neighbors of an item.
func (k *ItemKNN) PredictSimilar(_ context.Context, itemID int64, topK int) ([]recommend.ScoredID, error) {
	k.acquirePredictLock()
	defer k.releasePredictLock()

	if !k.trained {
		return nil, nil
	}

	neighbors := k.itemNeighbors[itemID]
	if len(neighbors) == 0 {
		return nil, nil
	}

	scores := make(map[int64]float64, len(neighbors))
	for _, n := range neighbors {
		scores[n.ID] = n.Similarity
	}

	return rankScores(normalizeScores(scores), topK), nil
}

// ========== User-Based Collaborative Filtering ==========

// UserKNN implements user-based collaborative filtering.
// It recommends items liked by users with similar rating patterns.
//
// For a target user u and candidate item i:
// score(u, i) = sum_{v in N(u)} sim(u, v) * r(v, i) / sum_{v in N(u)} |sim(u, v)|
//
// where N(u) is the set of k most similar users to u that rated item i.
type UserKNN struct {
	BaseAlgorithm
	config  recommend.KNNParams
	workers int

	// userVectors maps user ID to its item-rating vector.
	userVectors map[int64]map[int64]float64

	// itemUsers maps item ID to the users who rated it.
	itemUsers map[int64][]int64

	// userNeighbors holds the precomputed top-K neighbor lists.
	userNeighbors map[int64][]neighbor
}

// NewUserKNN creates a new user-based CF algorithm.
// Invalid parameters are replaced with defaults.
func NewUserKNN(cfg recommend.KNNParams) *UserKNN {
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = 50
	}
	if cfg.MinSimilarity < 0 {
		cfg.MinSimilarity = 0
	}

	return &UserKNN{
		BaseAlgorithm: NewBaseAlgorithm("user_knn"),
		config:        cfg,
		workers:       runtime.NumCPU(),
	}
}

// Train builds user vectors and precomputes user-user neighbor lists.
//
//nolint:gocritic // rangeValCopy is acceptable for clarity
func (k *UserKNN) Train(ctx context.Context, interactions []recommend.Interaction) error {
	k.acquireTrainLock()
	defer k.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	userVectors := make(map[int64]map[int64]float64)
	for _, inter := range interactions {
		weight := inter.PreferenceWeight()
		if weight <= 0 {
			continue
		}
		if userVectors[inter.UserID] == nil {
			userVectors[inter.UserID] = make(map[int64]float64)
		}
		if weight > userVectors[inter.UserID][inter.ItemID] {
			userVectors[inter.UserID][inter.ItemID] = weight
		}
	}

	itemUsers := make(map[int64][]int64)
	for userID, itemMap := range userVectors {
		for itemID := range itemMap {
			itemUsers[itemID] = append(itemUsers[itemID], userID)
		}
	}

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	neighbors, err := precomputeAllNeighbors(ctx, userVectors, newSimilarityParams(k.config), k.config.Neighbors, k.workers)
	if err != nil {
		return err
	}

	k.userVectors = userVectors
	k.itemUsers = itemUsers
	k.userNeighbors = neighbors
	k.markTrained()
	return nil
}

// Predict scores items rated by the user's neighbors, weighted by
// neighbor similarity. Items the user already rated are skipped.
func (k *UserKNN) Predict(_ context.Context, userID int64, topK int, exclude map[int64]struct{}) ([]recommend.ScoredID, error) {
	k.acquirePredictLock()
	defer k.releasePredictLock()

	if !k.trained {
		return nil, nil
	}

	neighbors := k.userNeighbors[userID]
	if len(neighbors) == 0 {
		return nil, nil
	}

	ownRatings := k.userVectors[userID]

	nums := make(map[int64]float64)
	dens := make(map[int64]float64)
	for _, n := range neighbors {
		for itemID, rating := range k.userVectors[n.ID] {
			if _, alreadyRated := ownRatings[itemID]; alreadyRated {
				continue
			}
			if _, skip := exclude[itemID]; skip {
				continue
			}
			nums[itemID] += n.Similarity * rating
			dens[itemID] += math.Abs(n.Similarity)
		}
	}

	scores := make(map[int64]float64, len(nums))
	for itemID, num := range nums {
		if den := dens[itemID]; den > 0 {
			scores[itemID] = num / den
		}
	}

	return rankScores(normalizeScores(scores), topK), nil
}

// PredictSimilar scores items by the Jaccard overlap of their rater
// sets with the given item's raters.
func (k *UserKNN) PredictSimilar(_ context.Context, itemID int64, topK int) ([]recommend.ScoredID, error) {
	k.acquirePredictLock()
	defer k.releasePredictLock()

	if !k.trained {
		return nil, nil
	}

	raters := k.itemUsers[itemID]
	if len(raters) == 0 {
		return nil, nil
	}

	// Count co-raters via the users who rated the source item rather
	// than scanning every item pair.
	co := make(map[int64]int)
	for _, userID := range raters {
		for otherItem := range k.userVectors[userID] {
			if otherItem != itemID {
				co[otherItem]++
			}
		}
	}

	scores := make(map[int64]float64, len(co))
	for otherItem, intersection := range co {
		union := len(raters) + len(k.itemUsers[otherItem]) - intersection
		if union > 0 {
			scores[otherItem] = float64(intersection) / float64(union)
		}
	}

	return rankScores(normalizeScores(scores), topK), nil
}
