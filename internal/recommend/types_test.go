// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package recommend

import (
	"testing"
	"time"
)

func TestInteraction_PreferenceWeight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		interaction Interaction
		want        float64
	}{
		{
			name:        "rating used when no weight",
			interaction: Interaction{Rating: 4.5},
			want:        4.5,
		},
		{
			name:        "explicit weight overrides rating",
			interaction: Interaction{Rating: 4.5, Weight: 2.0},
			want:        2.0,
		},
		{
			name:        "zero weight falls back to rating",
			interaction: Interaction{Rating: 3.0, Weight: 0},
			want:        3.0,
		},
		{
			name:        "both zero",
			interaction: Interaction{},
			want:        0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.interaction.PreferenceWeight(); got != tt.want {
				t.Errorf("PreferenceWeight() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestRecommendMode_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode RecommendMode
		want string
	}{
		{ModePersonalized, "personalized"},
		{ModeSimilar, "similar"},
		{ModePopular, "popular"},
		{RecommendMode(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			if got := tt.mode.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecommendMode_Default(t *testing.T) {
	t.Parallel()

	// The zero value of a Request must mean personalized mode.
	var req Request
	if req.Mode != ModePersonalized {
		t.Errorf("zero Request mode = %v, want ModePersonalized", req.Mode)
	}
}

func TestInteraction_Timestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	i := Interaction{UserID: 1, ItemID: 100, Rating: 5, Timestamp: ts}

	if !i.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", i.Timestamp, ts)
	}
}
