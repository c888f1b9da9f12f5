// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package evaluate

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/lodestone/internal/recommend"
)

func TestGrid_Combinations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		grid Grid
		want []Params
	}{
		{
			name: "two by one",
			grid: Grid{"a": {1, 2}, "b": {10}},
			want: []Params{
				{"a": 1, "b": 10},
				{"a": 2, "b": 10},
			},
		},
		{
			name: "single dimension",
			grid: Grid{"x": {0.1, 0.2, 0.3}},
			want: []Params{{"x": 0.1}, {"x": 0.2}, {"x": 0.3}},
		},
		{
			name: "empty dimension ignored",
			grid: Grid{"a": {1}, "b": {}},
			want: []Params{{"a": 1}},
		},
		{
			name: "empty grid",
			grid: Grid{},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.grid.Combinations()
			if len(got) != len(tt.want) {
				t.Fatalf("got %d combinations, want %d", len(got), len(tt.want))
			}
			for i, params := range tt.want {
				if len(got[i]) != len(params) {
					t.Errorf("combination %d has %d params, want %d", i, len(got[i]), len(params))
				}
				for name, value := range params {
					if got[i][name] != value {
						t.Errorf("combination %d: %s = %v, want %v", i, name, got[i][name], value)
					}
				}
			}
		})
	}
}

// gridFixture builds four users with four items each. The good stub
// knows every user's full item list, so after the evaluator excludes
// the train fold only withheld items remain and it scores perfectly.
// The bad stub recommends items nobody interacted with.
func gridFixture() ([]recommend.Interaction, AlgorithmFactory) {
	interactions := userItems(map[int64][]int64{
		1: {10, 11, 12, 13},
		2: {20, 21, 22, 23},
		3: {30, 31, 32, 33},
		4: {40, 41, 42, 43},
	})

	goodRecs := make(map[int64][]recommend.ScoredID)
	for user := int64(1); user <= 4; user++ {
		base := user * 10
		goodRecs[user] = scored(base, base+1, base+2, base+3)
	}
	badRecs := map[int64][]recommend.ScoredID{
		1: scored(999), 2: scored(999), 3: scored(999), 4: scored(999),
	}

	factory := func(params Params) recommend.Algorithm {
		if params["good"] == 1 {
			return &stubAlgorithm{name: "good", recs: goodRecs}
		}
		return &stubAlgorithm{name: "bad", recs: badRecs}
	}
	return interactions, factory
}

func TestEvaluator_GridSearch(t *testing.T) {
	t.Parallel()

	interactions, factory := gridFixture()
	grid := Grid{"good": {0, 1}}

	ev := NewEvaluator(EvaluatorConfig{K: 2, Workers: 2})
	result, err := ev.GridSearch(context.Background(), factory, grid, interactions, 2, 42)
	if err != nil {
		t.Fatalf("GridSearch() error = %v", err)
	}

	if result.Best["good"] != 1 {
		t.Errorf("Best = %v, want good=1", result.Best)
	}
	if !approxEqual(result.BestScore, 1) {
		t.Errorf("BestScore = %v, want 1", result.BestScore)
	}
	if result.Folds != 2 {
		t.Errorf("Folds = %d, want 2", result.Folds)
	}
	if len(result.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(result.Runs))
	}

	// Combinations are visited in value order, so the bad stub is the
	// first run and scores zero on both folds.
	bad := result.Runs[0]
	if bad.Params["good"] != 0 {
		t.Errorf("first run params = %v, want good=0", bad.Params)
	}
	if len(bad.FoldScores) != 2 {
		t.Errorf("first run has %d fold scores, want 2", len(bad.FoldScores))
	}
	if !approxEqual(bad.MeanScore, 0) {
		t.Errorf("bad stub MeanScore = %v, want 0", bad.MeanScore)
	}
}

func TestEvaluator_GridSearch_TieKeepsFirst(t *testing.T) {
	t.Parallel()

	interactions, _ := gridFixture()
	factory := func(_ Params) recommend.Algorithm {
		return &stubAlgorithm{name: "bad", recs: map[int64][]recommend.ScoredID{}}
	}
	grid := Grid{"x": {1, 2}}

	ev := NewEvaluator(EvaluatorConfig{K: 2, Workers: 1})
	result, err := ev.GridSearch(context.Background(), factory, grid, interactions, 2, 42)
	if err != nil {
		t.Fatalf("GridSearch() error = %v", err)
	}

	if result.Best["x"] != 1 {
		t.Errorf("Best = %v, want the earlier combination x=1", result.Best)
	}
}

func TestEvaluator_GridSearch_TrainError(t *testing.T) {
	t.Parallel()

	interactions, _ := gridFixture()
	wantErr := errors.New("training exploded")
	factory := func(_ Params) recommend.Algorithm {
		return &stubAlgorithm{name: "broken", trainErr: wantErr}
	}

	ev := NewEvaluator(EvaluatorConfig{K: 2, Workers: 1})
	_, err := ev.GridSearch(context.Background(), factory, Grid{"x": {1}}, interactions, 2, 42)
	if !errors.Is(err, wantErr) {
		t.Errorf("GridSearch() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestEvaluator_GridSearch_Validation(t *testing.T) {
	t.Parallel()

	interactions, factory := gridFixture()
	ev := NewEvaluator(EvaluatorConfig{K: 2, Workers: 1})

	tests := []struct {
		name    string
		factory AlgorithmFactory
		grid    Grid
		folds   int
	}{
		{name: "nil factory", factory: nil, grid: Grid{"x": {1}}, folds: 2},
		{name: "empty grid", factory: factory, grid: Grid{}, folds: 2},
		{name: "one fold", factory: factory, grid: Grid{"x": {1}}, folds: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ev.GridSearch(context.Background(), tt.factory, tt.grid, interactions, tt.folds, 42); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestEvaluator_GridSearch_Cancelled(t *testing.T) {
	t.Parallel()

	interactions, factory := gridFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev := NewEvaluator(EvaluatorConfig{K: 2, Workers: 1})
	if _, err := ev.GridSearch(ctx, factory, Grid{"good": {0, 1}}, interactions, 2, 42); !errors.Is(err, context.Canceled) {
		t.Errorf("GridSearch() error = %v, want context.Canceled", err)
	}
}

func TestALSFactory(t *testing.T) {
	t.Parallel()

	factory := ALSFactory(recommend.ALSParams{Factors: 8, Iterations: 5}, 42)
	alg := factory(Params{"factors": 16, "lambda": 0.05})
	if alg == nil {
		t.Fatal("factory returned nil")
	}
	if alg.Name() != "als" {
		t.Errorf("Name() = %q, want als", alg.Name())
	}
}

func TestItemKNNFactory(t *testing.T) {
	t.Parallel()

	factory := ItemKNNFactory(recommend.KNNParams{Neighbors: 10})
	alg := factory(Params{"neighbors": 20, "shrinkage": 50})
	if alg == nil {
		t.Fatal("factory returned nil")
	}
	if alg.Name() != "item_knn" {
		t.Errorf("Name() = %q, want item_knn", alg.Name())
	}
}

func TestUserKNNFactory(t *testing.T) {
	t.Parallel()

	factory := UserKNNFactory(recommend.KNNParams{Neighbors: 10})
	alg := factory(Params{"min_common": 2, "min_similarity": 0.1})
	if alg == nil {
		t.Fatal("factory returned nil")
	}
	if alg.Name() != "user_knn" {
		t.Errorf("Name() = %q, want user_knn", alg.Name())
	}
}
