// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package reranking

import (
	"context"
	"testing"

	"github.com/tomtom215/lodestone/internal/recommend"
)

func TestNewMMR(t *testing.T) {
	tests := []struct {
		name       string
		lambda     float64
		wantLambda float64
	}{
		{"normal value", 0.7, 0.7},
		{"zero value", 0.0, 0.0},
		{"one value", 1.0, 1.0},
		{"negative clamped to zero", -0.5, 0.0},
		{"above one clamped to one", 1.5, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mmr := NewMMR(tt.lambda)
			if mmr == nil {
				t.Fatal("NewMMR() returned nil")
			}
			if mmr.lambda != tt.wantLambda {
				t.Errorf("lambda = %f, want %f", mmr.lambda, tt.wantLambda)
			}
		})
	}
}

func TestMMR_Name(t *testing.T) {
	if got := NewMMR(0.7).Name(); got != "mmr" {
		t.Errorf("Name() = %q, want %q", got, "mmr")
	}
}

func TestMMR_Rerank(t *testing.T) {
	items := []recommend.ScoredItem{
		{Item: recommend.Item{ID: 1, Genres: []string{"Action"}}, Score: 1.0},
		{Item: recommend.Item{ID: 2, Genres: []string{"Action"}}, Score: 0.9},
		{Item: recommend.Item{ID: 3, Genres: []string{"Comedy"}}, Score: 0.85},
		{Item: recommend.Item{ID: 4, Genres: []string{"Action"}}, Score: 0.8},
		{Item: recommend.Item{ID: 5, Genres: []string{"Drama"}}, Score: 0.75},
		{Item: recommend.Item{ID: 6, Genres: []string{"Comedy"}}, Score: 0.7},
	}

	tests := []struct {
		name    string
		lambda  float64
		k       int
		wantLen int
	}{
		{name: "pure relevance truncates", lambda: 1.0, k: 3, wantLen: 3},
		{name: "balanced selection", lambda: 0.7, k: 3, wantLen: 3},
		{name: "k larger than items", lambda: 0.7, k: 10, wantLen: 6},
		{name: "k zero returns input", lambda: 0.7, k: 0, wantLen: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewMMR(tt.lambda).Rerank(context.Background(), items, tt.k)
			if len(result) != tt.wantLen {
				t.Errorf("len(result) = %d, want %d", len(result), tt.wantLen)
			}
		})
	}
}

func TestMMR_Rerank_DiversityEffect(t *testing.T) {
	// All high-scoring items share one genre, the long tail differs.
	items := []recommend.ScoredItem{
		{Item: recommend.Item{ID: 1, Genres: []string{"Action"}}, Score: 1.0},
		{Item: recommend.Item{ID: 2, Genres: []string{"Action"}}, Score: 0.95},
		{Item: recommend.Item{ID: 3, Genres: []string{"Action"}}, Score: 0.9},
		{Item: recommend.Item{ID: 4, Genres: []string{"Comedy"}}, Score: 0.5},
		{Item: recommend.Item{ID: 5, Genres: []string{"Drama"}}, Score: 0.4},
	}

	t.Run("pure relevance keeps the score order", func(t *testing.T) {
		result := NewMMR(1.0).Rerank(context.Background(), items, 3)
		for i, item := range result {
			if item.Item.ID != items[i].Item.ID {
				t.Errorf("position %d: got item %d, want %d", i, item.Item.ID, items[i].Item.ID)
			}
		}
	})

	t.Run("low lambda promotes diversity", func(t *testing.T) {
		result := NewMMR(0.3).Rerank(context.Background(), items, 3)

		genresSeen := make(map[string]bool)
		for _, item := range result {
			for _, g := range item.Item.Genres {
				genresSeen[g] = true
			}
		}
		if len(genresSeen) < 2 {
			t.Errorf("expected genre diversity, only saw %v", genresSeen)
		}
	})

	t.Run("first pick is always the top scorer", func(t *testing.T) {
		result := NewMMR(0.3).Rerank(context.Background(), items, 3)
		if result[0].Item.ID != 1 {
			t.Errorf("first pick = %d, want 1", result[0].Item.ID)
		}
	})
}

func TestMMR_Rerank_EmptyInput(t *testing.T) {
	mmr := NewMMR(0.7)

	if result := mmr.Rerank(context.Background(), nil, 5); len(result) != 0 {
		t.Errorf("expected empty result for nil input, got %d items", len(result))
	}
	if result := mmr.Rerank(context.Background(), []recommend.ScoredItem{}, 5); len(result) != 0 {
		t.Errorf("expected empty result for empty slice, got %d items", len(result))
	}
}

func TestMMR_Rerank_SingleItem(t *testing.T) {
	items := []recommend.ScoredItem{
		{Item: recommend.Item{ID: 1, Genres: []string{"Action"}}, Score: 1.0},
	}

	result := NewMMR(0.7).Rerank(context.Background(), items, 5)

	if len(result) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result))
	}
	if result[0].Item.ID != 1 {
		t.Errorf("item ID = %d, want 1", result[0].Item.ID)
	}
}

func TestGenreJaccard(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want float64
	}{
		{
			name: "identical genres",
			a:    []string{"Action", "Sci-Fi"},
			b:    []string{"Action", "Sci-Fi"},
			want: 1.0,
		},
		{
			name: "no overlap",
			a:    []string{"Action"},
			b:    []string{"Comedy"},
			want: 0.0,
		},
		{
			name: "partial overlap",
			a:    []string{"Action", "Sci-Fi"},
			b:    []string{"Action", "Drama"},
			want: 1.0 / 3.0,
		},
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: 0.0,
		},
		{
			name: "one empty",
			a:    []string{"Action"},
			b:    nil,
			want: 0.0,
		},
		{
			name: "case insensitive",
			a:    []string{"ACTION"},
			b:    []string{"action"},
			want: 1.0,
		},
		{
			name: "duplicates collapse",
			a:    []string{"Action", "Action"},
			b:    []string{"Action"},
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := genreJaccard(tt.a, tt.b)
			if got < tt.want-0.01 || got > tt.want+0.01 {
				t.Errorf("genreJaccard(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
