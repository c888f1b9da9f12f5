// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"testing"

	"github.com/tomtom215/lodestone/internal/evaluate"
)

func TestParseGrid(t *testing.T) {
	grid, err := parseGrid([]string{"factors=16,32,64", "lambda=0.01, 0.1"})
	if err != nil {
		t.Fatalf("parseGrid() error = %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("len(grid) = %d, want 2", len(grid))
	}
	if got := grid["factors"]; len(got) != 3 || got[0] != 16 || got[2] != 64 {
		t.Errorf("factors = %v, want [16 32 64]", got)
	}
	if got := grid["lambda"]; len(got) != 2 || got[1] != 0.1 {
		t.Errorf("lambda = %v, want [0.01 0.1]", got)
	}
}

func TestParseGrid_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec string
	}{
		{"no equals", "factors"},
		{"empty name", "=1,2"},
		{"bad value", "factors=16,abc"},
		{"no values", "factors=,,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseGrid([]string{tt.spec}); err == nil {
				t.Errorf("parseGrid(%q) expected error", tt.spec)
			}
		})
	}
}

func TestFormatParams(t *testing.T) {
	got := formatParams(evaluate.Params{"lambda": 0.1, "factors": 32})
	if got != "factors=32 lambda=0.1" {
		t.Errorf("formatParams() = %q, want sorted names", got)
	}

	if got := formatParams(nil); got != "" {
		t.Errorf("formatParams(nil) = %q, want empty", got)
	}
}
