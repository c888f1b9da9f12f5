// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockDataProvider implements DataProvider for testing.
type mockDataProvider struct {
	interactions    []Interaction
	items           []Item
	userHistory     map[int64][]int64
	candidates      map[int64][]int64
	interactionsErr error
	itemsErr        error
	userHistoryErr  error
	candidatesErr   error
}

func (m *mockDataProvider) GetInteractions(_ context.Context, _ time.Time) ([]Interaction, error) {
	if m.interactionsErr != nil {
		return nil, m.interactionsErr
	}
	return m.interactions, nil
}

func (m *mockDataProvider) GetItems(_ context.Context) ([]Item, error) {
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	return m.items, nil
}

func (m *mockDataProvider) GetUserHistory(_ context.Context, userID int64) ([]int64, error) {
	if m.userHistoryErr != nil {
		return nil, m.userHistoryErr
	}
	if m.userHistory == nil {
		return nil, nil
	}
	return m.userHistory[userID], nil
}

func (m *mockDataProvider) GetCandidates(_ context.Context, userID int64, limit int) ([]int64, error) {
	if m.candidatesErr != nil {
		return nil, m.candidatesErr
	}
	if m.candidates == nil {
		return nil, nil
	}
	candidates := m.candidates[userID]
	if len(candidates) > limit {
		return candidates[:limit], nil
	}
	return candidates, nil
}

// mockAlgorithm implements Algorithm for testing.
type mockAlgorithm struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	trainErr      error
	ranked        []ScoredID
	predictErr    error
	similar       []ScoredID
	similarErr    error
	trainDelay    time.Duration
	mu            sync.RWMutex
}

func newMockAlgorithm(name string) *mockAlgorithm {
	return &mockAlgorithm{name: name}
}

func (m *mockAlgorithm) Name() string {
	return m.name
}

func (m *mockAlgorithm) Train(ctx context.Context, _ []Interaction) error {
	if m.trainDelay > 0 {
		select {
		case <-time.After(m.trainDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.trainErr != nil {
		return m.trainErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trained = true
	m.version++
	m.lastTrainedAt = time.Now()
	return nil
}

func (m *mockAlgorithm) Predict(_ context.Context, _ int64, k int, exclude map[int64]struct{}) ([]ScoredID, error) {
	if m.predictErr != nil {
		return nil, m.predictErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ScoredID, 0, len(m.ranked))
	for _, scored := range m.ranked {
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

func (m *mockAlgorithm) PredictSimilar(_ context.Context, _ int64, k int) ([]ScoredID, error) {
	if m.similarErr != nil {
		return nil, m.similarErr
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if k > 0 && len(m.similar) > k {
		return m.similar[:k], nil
	}
	return m.similar, nil
}

func (m *mockAlgorithm) IsTrained() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trained
}

func (m *mockAlgorithm) Version() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *mockAlgorithm) LastTrainedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastTrainedAt
}

// testConfig returns a config with training thresholds lowered so
// small fixtures can train.
func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Training.MinInteractions = 1
	cfg.Training.MinUsers = 1
	cfg.Training.MinItems = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg *Config) *Engine {
	t.Helper()

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return engine
}

// trainedMock returns a mock algorithm that reports as trained.
func trainedMock(name string, ranked ...ScoredID) *mockAlgorithm {
	m := newMockAlgorithm(name)
	m.trained = true
	m.version = 1
	m.lastTrainedAt = time.Now()
	m.ranked = ranked
	return m
}

func TestNewEngine(t *testing.T) {
	t.Run("nil config uses defaults", func(t *testing.T) {
		engine, err := NewEngine(nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine(nil) error = %v", err)
		}
		if engine.config.Limits.DefaultK != 10 {
			t.Errorf("DefaultK = %d, want 10", engine.config.Limits.DefaultK)
		}
	})

	t.Run("invalid config rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ALS.Factors = -1
		if _, err := NewEngine(cfg, zerolog.Nop()); err == nil {
			t.Error("NewEngine() with invalid config returned nil error")
		}
	})
}

func TestEngine_RegisterAlgorithm(t *testing.T) {
	engine := newTestEngine(t, nil)

	engine.RegisterAlgorithm(newMockAlgorithm("first"))
	engine.RegisterAlgorithm(newMockAlgorithm("second"))

	if got := len(engine.getAlgorithms()); got != 2 {
		t.Errorf("registered %d algorithms, want 2", got)
	}
}

func TestEngine_Recommend(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = AlgorithmWeights{ALS: 1}

	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{
		userHistory: map[int64][]int64{1: {5}},
	})
	engine.RegisterAlgorithm(trainedMock("als",
		ScoredID{ItemID: 10, Score: 0.9},
		ScoredID{ItemID: 5, Score: 0.8},
		ScoredID{ItemID: 20, Score: 0.5},
	))

	ctx := context.Background()

	t.Run("returns blended recommendations", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{UserID: 1, K: 10})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}

		if len(resp.Items) == 0 {
			t.Fatal("Recommend() returned no items")
		}
		if resp.Items[0].Item.ID != 10 {
			t.Errorf("top item = %d, want 10", resp.Items[0].Item.ID)
		}
		if resp.Metadata.Fallback {
			t.Error("Fallback = true for user with personalized scores")
		}
		if len(resp.Metadata.AlgorithmsUsed) != 1 || resp.Metadata.AlgorithmsUsed[0] != "als" {
			t.Errorf("AlgorithmsUsed = %v, want [als]", resp.Metadata.AlgorithmsUsed)
		}
		if resp.Metadata.RequestID == "" {
			t.Error("RequestID is empty")
		}
	})

	t.Run("history is never recommended", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{UserID: 1, K: 10})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		for _, item := range resp.Items {
			if item.Item.ID == 5 {
				t.Error("item 5 from user history was recommended")
			}
		}
	})

	t.Run("request exclusions honored", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{UserID: 1, K: 10, ExcludeIDs: []int64{10}})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		for _, item := range resp.Items {
			if item.Item.ID == 10 {
				t.Error("explicitly excluded item 10 was recommended")
			}
		}
	})

	t.Run("zero K gets default", func(t *testing.T) {
		resp, err := engine.Recommend(ctx, Request{UserID: 1})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(resp.Items) > engine.config.Limits.DefaultK {
			t.Errorf("returned %d items, want at most %d", len(resp.Items), engine.config.Limits.DefaultK)
		}
	})

	t.Run("no data provider errors", func(t *testing.T) {
		bare := newTestEngine(t, testConfig())
		bare.RegisterAlgorithm(trainedMock("als"))
		if _, err := bare.Recommend(ctx, Request{UserID: 1}); err == nil {
			t.Error("Recommend() without provider returned nil error")
		}
	})

	t.Run("no algorithms errors", func(t *testing.T) {
		empty := newTestEngine(t, testConfig())
		empty.SetDataProvider(&mockDataProvider{})
		if _, err := empty.Recommend(ctx, Request{UserID: 1}); err == nil {
			t.Error("Recommend() without algorithms returned nil error")
		}
	})
}

func TestEngine_Recommend_Fallback(t *testing.T) {
	cfg := testConfig()
	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{})

	// The personalized algorithm has nothing for this user; the
	// popularity baseline carries the response.
	engine.RegisterAlgorithm(trainedMock("als"))
	engine.RegisterAlgorithm(trainedMock("popularity",
		ScoredID{ItemID: 30, Score: 1.0},
		ScoredID{ItemID: 31, Score: 0.7},
	))

	resp, err := engine.Recommend(context.Background(), Request{UserID: 42, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if !resp.Metadata.Fallback {
		t.Error("Fallback = false for cold user")
	}
	if len(resp.Items) != 2 {
		t.Fatalf("returned %d items, want 2", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 30 {
		t.Errorf("top fallback item = %d, want 30", resp.Items[0].Item.ID)
	}
	if resp.Items[0].Reason == "" {
		t.Error("fallback items carry no reason")
	}

	metrics := engine.GetMetrics()
	if metrics.FallbackCount != 1 {
		t.Errorf("FallbackCount = %d, want 1", metrics.FallbackCount)
	}
}

func TestEngine_Recommend_PopularMode(t *testing.T) {
	cfg := testConfig()
	// Zero popularity weight must not matter in popular mode.
	cfg.Weights = AlgorithmWeights{ALS: 1}

	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{})
	engine.RegisterAlgorithm(trainedMock("als", ScoredID{ItemID: 10, Score: 0.9}))
	engine.RegisterAlgorithm(trainedMock("popularity", ScoredID{ItemID: 30, Score: 1.0}))

	resp, err := engine.Recommend(context.Background(), Request{UserID: 1, K: 5, Mode: ModePopular})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("returned %d items, want 1", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 30 {
		t.Errorf("popular mode item = %d, want 30", resp.Items[0].Item.ID)
	}
	if resp.Metadata.Fallback {
		t.Error("popular mode reported as fallback")
	}
}

func TestEngine_Recommend_SimilarMode(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	engine.SetDataProvider(&mockDataProvider{})

	alg := trainedMock("als")
	alg.similar = []ScoredID{
		{ItemID: 11, Score: 0.8},
		{ItemID: 12, Score: 0.6},
	}
	engine.RegisterAlgorithm(alg)

	resp, err := engine.Recommend(context.Background(), Request{
		UserID:        1,
		K:             5,
		Mode:          ModeSimilar,
		CurrentItemID: 10,
	})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(resp.Items) != 2 {
		t.Fatalf("returned %d items, want 2", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 11 {
		t.Errorf("top similar item = %d, want 11", resp.Items[0].Item.ID)
	}
	if resp.Metadata.Mode != "similar" {
		t.Errorf("metadata mode = %q, want %q", resp.Metadata.Mode, "similar")
	}
}

func TestEngine_Recommend_AllowSet(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = AlgorithmWeights{ALS: 1}

	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{
		candidates: map[int64][]int64{1: {20}},
	})
	engine.RegisterAlgorithm(trainedMock("als",
		ScoredID{ItemID: 10, Score: 0.9},
		ScoredID{ItemID: 20, Score: 0.5},
	))

	resp, err := engine.Recommend(context.Background(), Request{UserID: 1, K: 10})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(resp.Items) != 1 {
		t.Fatalf("returned %d items, want 1", len(resp.Items))
	}
	if resp.Items[0].Item.ID != 20 {
		t.Errorf("allowed item = %d, want 20", resp.Items[0].Item.ID)
	}
}

func TestEngine_Recommend_CacheHit(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	engine.SetDataProvider(&mockDataProvider{})
	engine.RegisterAlgorithm(trainedMock("als", ScoredID{ItemID: 10, Score: 0.9}))

	ctx := context.Background()
	req := Request{UserID: 1, K: 5}

	first, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("first Recommend() error = %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first request reported cache hit")
	}

	second, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("second Recommend() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second identical request missed cache")
	}

	metrics := engine.GetMetrics()
	if metrics.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", metrics.CacheHits)
	}
}

func TestEngine_Recommend_CacheDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = false

	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{})
	engine.RegisterAlgorithm(trainedMock("als", ScoredID{ItemID: 10, Score: 0.9}))

	ctx := context.Background()
	req := Request{UserID: 1, K: 5}

	if _, err := engine.Recommend(ctx, req); err != nil {
		t.Fatalf("first Recommend() error = %v", err)
	}
	second, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("second Recommend() error = %v", err)
	}
	if second.Metadata.CacheHit {
		t.Error("cache hit with caching disabled")
	}
}

func TestEngine_Recommend_AlgorithmError(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = AlgorithmWeights{ALS: 1, ItemKNN: 1}

	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{})

	failing := trainedMock("als")
	failing.predictErr = errors.New("model corrupted")
	engine.RegisterAlgorithm(failing)
	engine.RegisterAlgorithm(trainedMock("item_knn", ScoredID{ItemID: 15, Score: 0.7}))

	resp, err := engine.Recommend(context.Background(), Request{UserID: 1, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if len(resp.Items) != 1 || resp.Items[0].Item.ID != 15 {
		t.Errorf("surviving algorithm results not served: %v", resp.Items)
	}
	for _, name := range resp.Metadata.AlgorithmsUsed {
		if name == "als" {
			t.Error("failed algorithm listed as used")
		}
	}
}

func TestEngine_Recommend_UntrainedAlgorithm(t *testing.T) {
	cfg := testConfig()
	cfg.Weights = AlgorithmWeights{ALS: 1, ItemKNN: 1}

	engine := newTestEngine(t, cfg)
	engine.SetDataProvider(&mockDataProvider{})

	untrained := newMockAlgorithm("als")
	untrained.ranked = []ScoredID{{ItemID: 99, Score: 1.0}}
	engine.RegisterAlgorithm(untrained)
	engine.RegisterAlgorithm(trainedMock("item_knn", ScoredID{ItemID: 15, Score: 0.7}))

	resp, err := engine.Recommend(context.Background(), Request{UserID: 1, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	for _, item := range resp.Items {
		if item.Item.ID == 99 {
			t.Error("untrained algorithm contributed to results")
		}
	}
}

func TestEngine_Train(t *testing.T) {
	ctx := context.Background()

	t.Run("trains all algorithms and bumps version", func(t *testing.T) {
		engine := newTestEngine(t, testConfig())
		engine.SetDataProvider(&mockDataProvider{
			interactions: []Interaction{
				{UserID: 1, ItemID: 100, Rating: 4.5},
				{UserID: 2, ItemID: 101, Rating: 3.0},
			},
			items: []Item{
				{ID: 100, Title: "The Matrix"},
				{ID: 101, Title: "Inception"},
			},
		})

		first := newMockAlgorithm("als")
		second := newMockAlgorithm("popularity")
		engine.RegisterAlgorithm(first)
		engine.RegisterAlgorithm(second)

		if err := engine.Train(ctx); err != nil {
			t.Fatalf("Train() error = %v", err)
		}

		if !first.IsTrained() || !second.IsTrained() {
			t.Error("algorithms not trained")
		}

		status := engine.GetStatus()
		if status.ModelVersion != 1 {
			t.Errorf("ModelVersion = %d, want 1", status.ModelVersion)
		}
		if status.IsTraining {
			t.Error("IsTraining = true after completion")
		}
		if status.InteractionCount != 2 {
			t.Errorf("InteractionCount = %d, want 2", status.InteractionCount)
		}
	})

	t.Run("enriches responses with item metadata", func(t *testing.T) {
		engine := newTestEngine(t, testConfig())
		engine.SetDataProvider(&mockDataProvider{
			interactions: []Interaction{{UserID: 1, ItemID: 100, Rating: 4.5}},
			items:        []Item{{ID: 100, Title: "The Matrix", Year: 1999}},
		})
		engine.RegisterAlgorithm(trainedMock("als", ScoredID{ItemID: 100, Score: 0.9}))

		if err := engine.Train(ctx); err != nil {
			t.Fatalf("Train() error = %v", err)
		}

		resp, err := engine.Recommend(ctx, Request{UserID: 7, K: 5})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if len(resp.Items) == 0 {
			t.Fatal("no items returned")
		}
		if resp.Items[0].Item.Title != "The Matrix" {
			t.Errorf("item title = %q, want %q", resp.Items[0].Item.Title, "The Matrix")
		}
	})

	t.Run("insufficient interactions rejected", func(t *testing.T) {
		cfg := testConfig()
		cfg.Training.MinInteractions = 100

		engine := newTestEngine(t, cfg)
		engine.SetDataProvider(&mockDataProvider{
			interactions: []Interaction{{UserID: 1, ItemID: 100, Rating: 4.5}},
		})

		err := engine.Train(ctx)
		if err == nil {
			t.Fatal("Train() with insufficient data returned nil error")
		}
		if !strings.Contains(err.Error(), "insufficient interactions") {
			t.Errorf("error = %v, want insufficient interactions", err)
		}
	})

	t.Run("provider error propagates", func(t *testing.T) {
		engine := newTestEngine(t, testConfig())
		engine.SetDataProvider(&mockDataProvider{
			interactionsErr: errors.New("database offline"),
		})

		if err := engine.Train(ctx); err == nil {
			t.Error("Train() with provider error returned nil error")
		}
	})

	t.Run("algorithm failure does not abort training", func(t *testing.T) {
		engine := newTestEngine(t, testConfig())
		engine.SetDataProvider(&mockDataProvider{
			interactions: []Interaction{{UserID: 1, ItemID: 100, Rating: 4.5}},
		})

		failing := newMockAlgorithm("als")
		failing.trainErr = errors.New("singular matrix")
		healthy := newMockAlgorithm("popularity")
		engine.RegisterAlgorithm(failing)
		engine.RegisterAlgorithm(healthy)

		if err := engine.Train(ctx); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if !healthy.IsTrained() {
			t.Error("healthy algorithm not trained after sibling failure")
		}
	})
}

func TestEngine_Train_AlreadyInProgress(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	engine.SetDataProvider(&mockDataProvider{
		interactions: []Interaction{{UserID: 1, ItemID: 100, Rating: 4.5}},
	})

	slow := newMockAlgorithm("als")
	slow.trainDelay = 300 * time.Millisecond
	engine.RegisterAlgorithm(slow)

	errCh := make(chan error, 1)
	go func() {
		errCh <- engine.Train(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)

	if err := engine.Train(context.Background()); err == nil {
		t.Error("concurrent Train() returned nil error")
	}

	if err := <-errCh; err != nil {
		t.Errorf("first Train() error = %v", err)
	}
}

func TestEngine_Train_ClearsCache(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	engine.SetDataProvider(&mockDataProvider{
		interactions: []Interaction{{UserID: 1, ItemID: 100, Rating: 4.5}},
	})
	engine.RegisterAlgorithm(trainedMock("als", ScoredID{ItemID: 10, Score: 0.9}))

	ctx := context.Background()
	req := Request{UserID: 1, K: 5}

	if _, err := engine.Recommend(ctx, req); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if err := engine.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	resp, err := engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() after Train() error = %v", err)
	}
	if resp.Metadata.CacheHit {
		t.Error("stale cache served after training")
	}
}

func TestEngine_Train_ContextCancellation(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	engine.SetDataProvider(&mockDataProvider{
		interactions: []Interaction{{UserID: 1, ItemID: 100, Rating: 4.5}},
	})

	slow := newMockAlgorithm("als")
	slow.trainDelay = time.Second
	engine.RegisterAlgorithm(slow)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Training itself completes; the cancelled algorithm failure is
	// logged, not fatal.
	if err := engine.Train(ctx); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if slow.IsTrained() {
		t.Error("algorithm trained despite cancelled context")
	}
}

func TestEngine_GetMetrics(t *testing.T) {
	engine := newTestEngine(t, testConfig())
	engine.SetDataProvider(&mockDataProvider{})
	engine.RegisterAlgorithm(trainedMock("als", ScoredID{ItemID: 10, Score: 0.9}))

	ctx := context.Background()
	if _, err := engine.Recommend(ctx, Request{UserID: 1, K: 5}); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	metrics := engine.GetMetrics()
	if metrics.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1", metrics.RequestCount)
	}
	if metrics.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", metrics.CacheMisses)
	}
}

func TestEngine_UpdateConfig(t *testing.T) {
	engine := newTestEngine(t, nil)

	bad := DefaultConfig()
	bad.Limits.DefaultK = -1
	if err := engine.UpdateConfig(bad); err == nil {
		t.Error("UpdateConfig() with invalid config returned nil error")
	}

	good := DefaultConfig()
	good.Limits.DefaultK = 25
	if err := engine.UpdateConfig(good); err != nil {
		t.Fatalf("UpdateConfig() error = %v", err)
	}
	if engine.GetConfig().Limits.DefaultK != 25 {
		t.Error("config update not applied")
	}
}

func TestEngine_GenerateRequestID(t *testing.T) {
	engine := newTestEngine(t, nil)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := engine.generateRequestID()
		if !strings.HasPrefix(id, "rec-") {
			t.Fatalf("request ID %q missing prefix", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate request ID %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestEngine_CacheKey(t *testing.T) {
	engine := newTestEngine(t, nil)

	base := engine.cacheKey(Request{UserID: 1, K: 10})
	tests := []struct {
		name string
		req  Request
	}{
		{name: "different user", req: Request{UserID: 2, K: 10}},
		{name: "different k", req: Request{UserID: 1, K: 20}},
		{name: "different item", req: Request{UserID: 1, K: 10, CurrentItemID: 5}},
		{name: "different mode", req: Request{UserID: 1, K: 10, Mode: ModeSimilar}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.cacheKey(tt.req); got == base {
				t.Errorf("cacheKey(%+v) collides with base key %q", tt.req, base)
			}
		})
	}
}

func TestCountUniqueUsers(t *testing.T) {
	interactions := []Interaction{
		{UserID: 1, ItemID: 100},
		{UserID: 1, ItemID: 101},
		{UserID: 2, ItemID: 100},
		{UserID: 3, ItemID: 102},
	}

	if got := countUniqueUsers(interactions); got != 3 {
		t.Errorf("countUniqueUsers() = %d, want 3", got)
	}
	if got := countUniqueItems(interactions); got != 3 {
		t.Errorf("countUniqueItems() = %d, want 3", got)
	}
}
