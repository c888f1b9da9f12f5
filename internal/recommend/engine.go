// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package recommend

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Note: This package has no dependencies on other internal packages to
// maintain clean separation. The DataProvider interface allows the
// database layer to plug in without creating circular imports.

// FallbackAlgorithm is the name of the algorithm used for cold users.
const FallbackAlgorithm = "popularity"

// fallbackReason explains popularity-served items to the end user.
const fallbackReason = "popular with other users"

// Engine coordinates multiple recommendation algorithms and produces
// blended recommendations. It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	// Registered algorithms and rerankers
	algorithms []Algorithm
	rerankers  []Reranker
	algMu      sync.RWMutex

	// Training state
	trainMu       sync.RWMutex
	trainStatus   TrainingStatus
	modelVersion  int32
	lastTrainedAt time.Time
	itemMeta      map[int64]Item

	// Metrics
	metrics       Metrics
	metricsMu     sync.RWMutex
	requestCount  atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	fallbackCount atomic.Int64
	trainingCount atomic.Int64
	errorCount    atomic.Int64

	// Cache (simple in-memory map with TTL eviction)
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	// Random source for request IDs (protected by rngMu)
	rng   *rand.Rand
	rngMu sync.Mutex

	dataProvider DataProvider
}

// cacheEntry holds a cached recommendation response.
type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// DataProvider defines the interface for fetching training and
// prediction data. This is typically implemented by the database layer.
type DataProvider interface {
	// GetInteractions returns user-item interactions for training.
	GetInteractions(ctx context.Context, since time.Time) ([]Interaction, error)

	// GetItems returns item metadata.
	GetItems(ctx context.Context) ([]Item, error)

	// GetUserHistory returns item IDs the user has rated.
	GetUserHistory(ctx context.Context, userID int64) ([]int64, error)

	// GetCandidates returns candidate item IDs for recommendations,
	// excluding items the user has already rated. An empty slice means
	// no restriction.
	GetCandidates(ctx context.Context, userID int64, limit int) ([]int64, error)
}

// NewEngine creates a new recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Engine{
		config:     cfg,
		logger:     logger.With().Str("component", "recommend").Logger(),
		algorithms: make([]Algorithm, 0),
		rerankers:  make([]Reranker, 0),
		cache:      make(map[string]cacheEntry),
		itemMeta:   make(map[int64]Item),
		rng:        rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for request IDs
	}, nil
}

// SetDataProvider sets the data provider for training and prediction.
func (e *Engine) SetDataProvider(dp DataProvider) {
	e.dataProvider = dp
}

// RegisterAlgorithm adds an algorithm to the ensemble.
func (e *Engine) RegisterAlgorithm(alg Algorithm) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	e.algorithms = append(e.algorithms, alg)
	e.logger.Info().
		Str("algorithm", alg.Name()).
		Msg("registered algorithm")
}

// RegisterReranker adds a reranker to the post-processing pipeline.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.algMu.Lock()
	defer e.algMu.Unlock()

	e.rerankers = append(e.rerankers, rr)
	e.logger.Info().
		Str("reranker", rr.Name()).
		Msg("registered reranker")
}

// Recommend generates recommendations for a user.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	logger.Debug().Msg("processing recommendation request")

	if resp := e.tryGetCachedResponse(req, start, logger); resp != nil {
		return resp, nil
	}

	if e.dataProvider == nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("data provider not set")
	}

	exclude, err := e.buildExcludeSet(ctx, req)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("build exclusions: %w", err)
	}

	allow, err := e.fetchAllowSet(ctx, req)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("get candidates: %w", err)
	}

	scoredItems, algorithmsUsed, fallback, err := e.scoreAndRank(ctx, req, exclude, allow)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("score candidates: %w", err)
	}

	resp := e.buildResponse(req, scoredItems, algorithmsUsed, fallback, start)
	e.cacheResponse(req, resp)

	logger.Debug().
		Int("returned", len(resp.Items)).
		Bool("fallback", fallback).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = e.generateRequestID()
	}

	if req.K == 0 {
		req.K = e.config.Limits.DefaultK
	}
	if req.K > e.config.Limits.MaxK {
		req.K = e.config.Limits.MaxK
	}

	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Int64("user_id", req.UserID).
		Str("mode", req.Mode.String()).
		Logger()
}

// tryGetCachedResponse attempts to retrieve a cached response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, start time.Time, logger zerolog.Logger) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	cacheKey := e.cacheKey(req)
	resp := e.checkCache(cacheKey)
	if resp == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	logger.Debug().Msg("cache hit")
	return resp
}

// buildExcludeSet merges request exclusions with the user's history.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildExcludeSet(ctx context.Context, req Request) (map[int64]struct{}, error) {
	history, err := e.dataProvider.GetUserHistory(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user history: %w", err)
	}

	exclude := make(map[int64]struct{}, len(history)+len(req.Exclude)+len(req.ExcludeIDs))
	for _, id := range history {
		exclude[id] = struct{}{}
	}
	for id := range req.Exclude {
		exclude[id] = struct{}{}
	}
	for _, id := range req.ExcludeIDs {
		exclude[id] = struct{}{}
	}
	if req.CurrentItemID > 0 {
		exclude[req.CurrentItemID] = struct{}{}
	}

	return exclude, nil
}

// fetchAllowSet asks the data provider for the candidate pool. A nil
// or empty pool means no restriction.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) fetchAllowSet(ctx context.Context, req Request) (map[int64]struct{}, error) {
	candidates, err := e.dataProvider.GetCandidates(ctx, req.UserID, e.config.Limits.MaxCandidates)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	allow := make(map[int64]struct{}, len(candidates))
	for _, id := range candidates {
		allow[id] = struct{}{}
	}
	return allow, nil
}

// scoreAndRank runs the registered algorithms, blends their scores,
// applies rerankers, and truncates to K. When no personalized score
// survives, the popularity fallback takes over.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreAndRank(ctx context.Context, req Request, exclude, allow map[int64]struct{}) ([]ScoredItem, []string, bool, error) {
	algorithms := e.getAlgorithms()
	if len(algorithms) == 0 {
		return nil, nil, false, fmt.Errorf("no algorithms registered")
	}

	results := e.runAlgorithmPredictions(ctx, req, algorithms, exclude)

	weights := e.config.Weights.Normalize().ToMap()
	if req.Mode == ModePopular {
		// Popular mode serves the baseline directly, regardless of its
		// weight in the blend.
		weights = map[string]float64{FallbackAlgorithm: 1}
	}

	scoredItems, algorithmsUsed := e.combineAlgorithmScores(results, weights, exclude, allow)

	fallback := false
	if len(scoredItems) == 0 && req.Mode != ModePopular {
		scoredItems, algorithmsUsed = e.popularityFallback(ctx, req, algorithms, exclude, allow)
		if len(scoredItems) > 0 {
			fallback = true
		}
	} else if req.Mode != ModePopular && onlyFallbackContributed(algorithmsUsed) {
		// Cold user: the personalized algorithms had nothing, so the
		// blend is pure popularity. Flag it for the caller.
		fallback = true
		for i := range scoredItems {
			scoredItems[i].Reason = fallbackReason
		}
	}
	if fallback {
		e.fallbackCount.Add(1)
	}

	sort.Slice(scoredItems, func(i, j int) bool {
		if scoredItems[i].Score != scoredItems[j].Score {
			return scoredItems[i].Score > scoredItems[j].Score
		}
		return scoredItems[i].Item.ID < scoredItems[j].Item.ID
	})

	scoredItems = e.applyRerankers(ctx, scoredItems, req.K)

	if len(scoredItems) > req.K {
		scoredItems = scoredItems[:req.K]
	}

	return scoredItems, algorithmsUsed, fallback, nil
}

// onlyFallbackContributed reports whether the popularity baseline was
// the sole contributor to a blended result.
func onlyFallbackContributed(algorithmsUsed []string) bool {
	return len(algorithmsUsed) == 1 && algorithmsUsed[0] == FallbackAlgorithm
}

// getAlgorithms returns the registered algorithms.
func (e *Engine) getAlgorithms() []Algorithm {
	e.algMu.RLock()
	defer e.algMu.RUnlock()
	return e.algorithms
}

// algResult holds the result of a single algorithm prediction.
type algResult struct {
	name   string
	ranked []ScoredID
	err    error
}

// runAlgorithmPredictions runs all algorithms in parallel.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runAlgorithmPredictions(ctx context.Context, req Request, algorithms []Algorithm, exclude map[int64]struct{}) []algResult {
	results := make([]algResult, len(algorithms))
	var wg sync.WaitGroup

	for i, alg := range algorithms {
		wg.Add(1)
		go func(idx int, a Algorithm) {
			defer wg.Done()
			results[idx] = e.runSingleAlgorithm(ctx, req, a, exclude)
		}(i, alg)
	}

	wg.Wait()
	return results
}

// runSingleAlgorithm runs a single algorithm prediction.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) runSingleAlgorithm(ctx context.Context, req Request, alg Algorithm, exclude map[int64]struct{}) algResult {
	result := algResult{name: alg.Name()}

	if !alg.IsTrained() {
		return result
	}

	// In popular mode only the fallback algorithm contributes.
	if req.Mode == ModePopular && alg.Name() != FallbackAlgorithm {
		return result
	}

	algCtx, cancel := context.WithTimeout(ctx, e.config.Limits.PredictionTimeout)
	defer cancel()

	// Algorithms rank a deeper pool than K so the blend has overlap
	// to work with.
	fetchK := e.config.Limits.MaxCandidates

	var ranked []ScoredID
	var err error
	if req.Mode == ModeSimilar && req.CurrentItemID > 0 {
		ranked, err = alg.PredictSimilar(algCtx, req.CurrentItemID, fetchK)
	} else {
		ranked, err = alg.Predict(algCtx, req.UserID, fetchK, exclude)
	}

	result.ranked = ranked
	result.err = err
	return result
}

// combineAlgorithmScores merges per-algorithm rankings into weighted
// blended scores.
func (e *Engine) combineAlgorithmScores(results []algResult, weights map[string]float64, exclude, allow map[int64]struct{}) ([]ScoredItem, []string) {
	combinedScores := make(map[int64]float64)
	scoreBreakdown := make(map[int64]map[string]float64)
	algorithmsUsed := make([]string, 0, len(results))

	for _, result := range results {
		if !e.shouldUseResult(result, weights) {
			continue
		}

		algorithmsUsed = append(algorithmsUsed, result.name)
		weight := weights[result.name]

		for _, scored := range result.ranked {
			if !itemAllowed(scored.ItemID, exclude, allow) {
				continue
			}
			combinedScores[scored.ItemID] += weight * scored.Score
			if scoreBreakdown[scored.ItemID] == nil {
				scoreBreakdown[scored.ItemID] = make(map[string]float64)
			}
			scoreBreakdown[scored.ItemID][result.name] = scored.Score
		}
	}

	return e.buildScoredItems(combinedScores, scoreBreakdown), algorithmsUsed
}

// itemAllowed applies the exclusion set and the optional candidate
// pool restriction.
func itemAllowed(itemID int64, exclude, allow map[int64]struct{}) bool {
	if _, excluded := exclude[itemID]; excluded {
		return false
	}
	if len(allow) > 0 {
		if _, ok := allow[itemID]; !ok {
			return false
		}
	}
	return true
}

// shouldUseResult checks if an algorithm result should be used.
func (e *Engine) shouldUseResult(result algResult, weights map[string]float64) bool {
	if result.err != nil {
		e.logger.Warn().
			Str("algorithm", result.name).
			Err(result.err).
			Msg("algorithm prediction failed")
		return false
	}

	if len(result.ranked) == 0 {
		return false
	}

	return weights[result.name] > 0
}

// popularityFallback serves cold users from the popularity baseline.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) popularityFallback(ctx context.Context, req Request, algorithms []Algorithm, exclude, allow map[int64]struct{}) ([]ScoredItem, []string) {
	for _, alg := range algorithms {
		if alg.Name() != FallbackAlgorithm || !alg.IsTrained() {
			continue
		}

		ranked, err := alg.Predict(ctx, req.UserID, e.config.Limits.MaxCandidates, exclude)
		if err != nil || len(ranked) == 0 {
			return nil, nil
		}

		meta := e.itemMetaSnapshot()
		items := make([]ScoredItem, 0, len(ranked))
		for _, scored := range ranked {
			if !itemAllowed(scored.ItemID, exclude, allow) {
				continue
			}
			items = append(items, ScoredItem{
				Item:   itemOrBareID(meta, scored.ItemID),
				Score:  scored.Score,
				Scores: map[string]float64{FallbackAlgorithm: scored.Score},
				Reason: fallbackReason,
			})
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items, []string{FallbackAlgorithm}
	}

	return nil, nil
}

// buildScoredItems converts score maps to a ScoredItem slice with
// item metadata attached when known.
func (e *Engine) buildScoredItems(combinedScores map[int64]float64, scoreBreakdown map[int64]map[string]float64) []ScoredItem {
	meta := e.itemMetaSnapshot()
	items := make([]ScoredItem, 0, len(combinedScores))
	for itemID, score := range combinedScores {
		items = append(items, ScoredItem{
			Item:   itemOrBareID(meta, itemID),
			Score:  score,
			Scores: scoreBreakdown[itemID],
		})
	}
	return items
}

// itemMetaSnapshot returns the item metadata captured at training
// time. The map is replaced wholesale on retrain and never mutated in
// place, so callers may read the returned map without holding a lock.
func (e *Engine) itemMetaSnapshot() map[int64]Item {
	e.trainMu.RLock()
	defer e.trainMu.RUnlock()
	return e.itemMeta
}

// itemOrBareID looks up item metadata, falling back to a bare ID when
// the item was not seen at training time.
func itemOrBareID(meta map[int64]Item, itemID int64) Item {
	if item, ok := meta[itemID]; ok {
		return item
	}
	return Item{ID: itemID}
}

// applyRerankers applies post-processing rerankers to the scored items.
func (e *Engine) applyRerankers(ctx context.Context, items []ScoredItem, k int) []ScoredItem {
	e.algMu.RLock()
	rerankers := e.rerankers
	e.algMu.RUnlock()

	for _, rr := range rerankers {
		items = rr.Rerank(ctx, items, k)
	}

	return items
}

// buildResponse constructs the final response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, scoredItems []ScoredItem, algorithmsUsed []string, fallback bool, start time.Time) *Response {
	return &Response{
		Items:           scoredItems,
		TotalCandidates: len(scoredItems),
		Metadata:        e.buildResponseMetadata(req, algorithmsUsed, fallback, start, false),
	}
}

// buildResponseMetadata constructs response metadata.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponseMetadata(req Request, algorithmsUsed []string, fallback bool, start time.Time, cacheHit bool) ResponseMetadata {
	e.trainMu.RLock()
	trainedAt := e.lastTrainedAt
	e.trainMu.RUnlock()

	return ResponseMetadata{
		RequestID:      req.RequestID,
		UserID:         req.UserID,
		Mode:           req.Mode.String(),
		AlgorithmsUsed: algorithmsUsed,
		Fallback:       fallback,
		LatencyMS:      time.Since(start).Milliseconds(),
		CacheHit:       cacheHit,
		ModelVersion:   int(atomic.LoadInt32(&e.modelVersion)),
		TrainedAt:      trainedAt,
		Timestamp:      time.Now(),
	}
}

// cacheResponse stores the response in cache if enabled.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if e.config.Cache.Enabled {
		e.storeCache(e.cacheKey(req), resp)
	}
}

// Train trains all registered algorithms on the available data.
// Returns immediately with an error if training is already in progress.
func (e *Engine) Train(ctx context.Context) error {
	if err := e.acquireTrainingLock(); err != nil {
		return err
	}
	defer e.trainMu.Unlock()

	if e.dataProvider == nil {
		return fmt.Errorf("data provider not set")
	}

	start := time.Now()
	e.trainStatus.IsTraining = true
	e.trainStatus.Progress = 0
	e.trainStatus.LastError = ""
	e.logger.Info().Msg("starting model training")

	defer func() {
		duration := time.Since(start).Milliseconds()
		e.trainStatus.IsTraining = false
		e.trainStatus.LastTrainingDurationMS = duration

		e.metricsMu.Lock()
		e.metrics.LastTrainingDurationMS = duration
		e.metricsMu.Unlock()
	}()

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Training.Timeout)
	defer cancel()

	interactions, items, err := e.loadTrainingData(trainCtx)
	if err != nil {
		e.trainStatus.LastError = err.Error()
		return err
	}

	e.trainAllAlgorithms(trainCtx, interactions)
	e.storeItemMeta(items)
	e.completeTraining()

	e.logger.Info().
		Int("version", e.trainStatus.ModelVersion).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("model training complete")

	return nil
}

// acquireTrainingLock attempts to acquire the training lock without
// blocking, so concurrent train requests fail fast instead of queuing.
func (e *Engine) acquireTrainingLock() error {
	if !e.trainMu.TryLock() {
		return fmt.Errorf("training already in progress")
	}

	if e.trainStatus.IsTraining {
		e.trainMu.Unlock()
		return fmt.Errorf("training already in progress")
	}

	return nil
}

// loadTrainingData loads and validates training data.
func (e *Engine) loadTrainingData(ctx context.Context) ([]Interaction, []Item, error) {
	interactions, err := e.dataProvider.GetInteractions(ctx, time.Time{})
	if err != nil {
		return nil, nil, fmt.Errorf("get interactions: %w", err)
	}

	userCount := countUniqueUsers(interactions)
	itemCount := countUniqueItems(interactions)

	if len(interactions) < e.config.Training.MinInteractions {
		return nil, nil, fmt.Errorf("insufficient interactions: %d < %d", len(interactions), e.config.Training.MinInteractions)
	}
	if userCount < e.config.Training.MinUsers {
		return nil, nil, fmt.Errorf("insufficient users: %d < %d", userCount, e.config.Training.MinUsers)
	}
	if itemCount < e.config.Training.MinItems {
		return nil, nil, fmt.Errorf("insufficient items: %d < %d", itemCount, e.config.Training.MinItems)
	}

	items, err := e.dataProvider.GetItems(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("get items: %w", err)
	}

	e.trainStatus.InteractionCount = len(interactions)
	e.trainStatus.ItemCount = itemCount
	e.trainStatus.UserCount = userCount

	e.logger.Info().
		Int("interactions", len(interactions)).
		Int("items", itemCount).
		Int("users", userCount).
		Msg("loaded training data")

	return interactions, items, nil
}

// trainAllAlgorithms trains each registered algorithm. Individual
// failures are logged but don't stop training of other algorithms.
func (e *Engine) trainAllAlgorithms(ctx context.Context, interactions []Interaction) {
	algorithms := e.getAlgorithms()

	for i, alg := range algorithms {
		e.trainStatus.CurrentAlgorithm = alg.Name()
		e.trainStatus.Progress = (i * 100) / len(algorithms)

		e.logger.Debug().
			Str("algorithm", alg.Name()).
			Int("progress", e.trainStatus.Progress).
			Msg("training algorithm")

		if err := alg.Train(ctx, interactions); err != nil {
			e.logger.Error().
				Str("algorithm", alg.Name()).
				Err(err).
				Msg("algorithm training failed")
			continue
		}

		e.logger.Debug().
			Str("algorithm", alg.Name()).
			Msg("algorithm training complete")
	}
}

// storeItemMeta captures item metadata for response enrichment.
// Must be called while holding the training lock.
func (e *Engine) storeItemMeta(items []Item) {
	meta := make(map[int64]Item, len(items))
	for _, item := range items {
		meta[item.ID] = item
	}
	e.itemMeta = meta
}

// completeTraining finalizes the training process.
func (e *Engine) completeTraining() {
	atomic.AddInt32(&e.modelVersion, 1)
	e.trainingCount.Add(1)
	e.lastTrainedAt = time.Now()
	e.trainStatus.LastTrainedAt = e.lastTrainedAt
	e.trainStatus.ModelVersion = int(atomic.LoadInt32(&e.modelVersion))
	e.trainStatus.Progress = 100
	e.trainStatus.CurrentAlgorithm = ""

	if e.config.Cache.InvalidateOnTrain {
		e.clearCache()
	}
}

// GetStatus returns the current training status.
func (e *Engine) GetStatus() TrainingStatus {
	e.trainMu.RLock()
	defer e.trainMu.RUnlock()

	return e.trainStatus
}

// GetMetrics returns the current engine metrics.
func (e *Engine) GetMetrics() Metrics {
	e.metricsMu.RLock()
	defer e.metricsMu.RUnlock()

	// Update with atomic values
	m := e.metrics
	m.RequestCount = e.requestCount.Load()
	m.CacheHits = e.cacheHits.Load()
	m.CacheMisses = e.cacheMisses.Load()
	m.FallbackCount = e.fallbackCount.Load()
	m.TrainingCount = e.trainingCount.Load()
	m.ErrorCount = e.errorCount.Load()

	return m
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// UpdateConfig updates the engine configuration.
func (e *Engine) UpdateConfig(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e.config = cfg
	e.logger.Info().Msg("configuration updated")

	return nil
}

// cacheKey generates a cache key for a request.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func (e *Engine) cacheKey(req Request) string {
	return fmt.Sprintf("rec:%d:%d:%d:%s", req.UserID, req.K, req.CurrentItemID, req.Mode.String())
}

// checkCache checks if a cached response exists and is valid.
// Returns a copy of the cached response to avoid concurrent modification.
func (e *Engine) checkCache(key string) *Response {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok {
		return nil
	}

	if time.Now().After(entry.expiresAt) {
		return nil
	}

	items := make([]ScoredItem, len(entry.response.Items))
	copy(items, entry.response.Items)

	return &Response{
		Items:           items,
		TotalCandidates: entry.response.TotalCandidates,
		Metadata:        entry.response.Metadata,
	}
}

// storeCache stores a response in the cache.
func (e *Engine) storeCache(key string, resp *Response) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if len(e.cache) >= e.config.Cache.MaxEntries {
		e.evictExpiredLocked()
	}

	e.cache[key] = cacheEntry{
		response:  resp,
		expiresAt: time.Now().Add(e.config.Cache.TTL),
	}
}

// clearCache removes all cached entries.
func (e *Engine) clearCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.cache = make(map[string]cacheEntry)
	e.logger.Debug().Msg("cache cleared")
}

// evictExpiredLocked removes expired cache entries.
// Must be called with cacheMu held.
func (e *Engine) evictExpiredLocked() {
	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			delete(e.cache, key)
		}
	}
}

// generateRequestID generates a unique request ID for tracing.
// This method is safe for concurrent use.
func (e *Engine) generateRequestID() string {
	e.rngMu.Lock()
	n := e.rng.Intn(10000)
	e.rngMu.Unlock()
	return fmt.Sprintf("rec-%d-%d", time.Now().UnixNano(), n)
}

// countUniqueUsers counts unique users in interactions.
func countUniqueUsers(interactions []Interaction) int {
	users := make(map[int64]struct{}, len(interactions))
	for _, inter := range interactions {
		users[inter.UserID] = struct{}{}
	}
	return len(users)
}

// countUniqueItems counts unique items in interactions.
func countUniqueItems(interactions []Interaction) int {
	items := make(map[int64]struct{}, len(interactions))
	for _, inter := range interactions {
		items[inter.ItemID] = struct{}{}
	}
	return len(items)
}
