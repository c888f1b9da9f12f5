// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package mining

import (
	"context"
	"testing"

	"github.com/tomtom215/lodestone/internal/models"
)

func TestLikedTransactions(t *testing.T) {
	ratings := []models.Rating{
		{UserID: 1, MovieID: 10, Rating: 4.0},
		{UserID: 1, MovieID: 20, Rating: 3.0}, // below threshold
		{UserID: 1, MovieID: 30, Rating: 3.5},
		{UserID: 2, MovieID: 10, Rating: 5.0},
		{UserID: 3, MovieID: 20, Rating: 2.0}, // user 3 liked nothing
	}

	txns := LikedTransactions(ratings, 3.5)

	if len(txns) != 2 {
		t.Fatalf("len(txns) = %d, want 2", len(txns))
	}

	// Ascending user ID order: user 1 then user 2.
	if len(txns[0]) != 2 || txns[0][0] != 10 || txns[0][1] != 30 {
		t.Errorf("txns[0] = %v, want [10 30]", txns[0])
	}
	if len(txns[1]) != 1 || txns[1][0] != 10 {
		t.Errorf("txns[1] = %v, want [10]", txns[1])
	}
}

func TestLikedTransactions_Empty(t *testing.T) {
	if txns := LikedTransactions(nil, 3.5); len(txns) != 0 {
		t.Errorf("len(txns) = %d, want 0", len(txns))
	}
}

func TestGenreTransactions(t *testing.T) {
	movies := []models.Movie{
		{MovieID: 1, Genres: []string{"Drama", "Comedy"}},
		{MovieID: 2, Genres: []string{"Drama"}},
		{MovieID: 3, Genres: nil}, // no transaction
	}

	txns, names := GenreTransactions(movies)

	if len(txns) != 2 {
		t.Fatalf("len(txns) = %d, want 2", len(txns))
	}
	if len(names) != 2 || names[0] != "Drama" || names[1] != "Comedy" {
		t.Errorf("names = %v, want [Drama Comedy] in first-seen order", names)
	}
	if len(txns[0]) != 2 || txns[0][0] != 0 || txns[0][1] != 1 {
		t.Errorf("txns[0] = %v, want [0 1]", txns[0])
	}
	if len(txns[1]) != 1 || txns[1][0] != 0 {
		t.Errorf("txns[1] = %v, want [0]", txns[1])
	}
}

func TestGenreTransactions_MineEndToEnd(t *testing.T) {
	// Drama and Comedy co-occur in every dramatic comedy; a rule
	// between them should surface.
	movies := []models.Movie{
		{MovieID: 1, Genres: []string{"Drama", "Comedy"}},
		{MovieID: 2, Genres: []string{"Drama", "Comedy"}},
		{MovieID: 3, Genres: []string{"Drama"}},
		{MovieID: 4, Genres: []string{"Horror"}},
	}

	txns, names := GenreTransactions(movies)
	m := newTestMiner(t, Config{MinSupport: 0.25, MinConfidence: 0.5})

	_, rules, err := m.Mine(context.Background(), txns)
	if err != nil {
		t.Fatalf("Mine() error = %v", err)
	}

	found := false
	for _, r := range rules {
		if len(r.Antecedent) == 1 && names[r.Antecedent[0]] == "Comedy" &&
			len(r.Consequent) == 1 && names[r.Consequent[0]] == "Drama" {
			found = true
			if r.Confidence != 1.0 {
				t.Errorf("Comedy -> Drama confidence = %v, want 1.0", r.Confidence)
			}
		}
	}
	if !found {
		t.Error("expected Comedy -> Drama rule not found")
	}
}
