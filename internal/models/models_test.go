// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package models

import (
	"testing"
	"time"
)

func TestRatingValid(t *testing.T) {
	tests := []struct {
		name   string
		rating Rating
		want   bool
	}{
		{
			name:   "valid mid-scale rating",
			rating: Rating{UserID: 1, MovieID: 31, Rating: 2.5, Timestamp: time.Unix(1260759144, 0)},
			want:   true,
		},
		{
			name:   "valid minimum rating",
			rating: Rating{UserID: 1, MovieID: 1, Rating: 0.5},
			want:   true,
		},
		{
			name:   "valid maximum rating",
			rating: Rating{UserID: 1, MovieID: 1, Rating: 5.0},
			want:   true,
		},
		{
			name:   "zero rating out of range",
			rating: Rating{UserID: 1, MovieID: 1, Rating: 0},
			want:   false,
		},
		{
			name:   "rating above maximum",
			rating: Rating{UserID: 1, MovieID: 1, Rating: 5.5},
			want:   false,
		},
		{
			name:   "off-scale rating",
			rating: Rating{UserID: 1, MovieID: 1, Rating: 3.7},
			want:   false,
		},
		{
			name:   "zero user id",
			rating: Rating{UserID: 0, MovieID: 1, Rating: 3.0},
			want:   false,
		},
		{
			name:   "negative movie id",
			rating: Rating{UserID: 1, MovieID: -5, Rating: 3.0},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rating.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v for %+v", got, tt.want, tt.rating)
			}
		})
	}
}

func TestRatingValid_AllHalfSteps(t *testing.T) {
	// Every value on the half-star scale must validate
	for v := MinRating; v <= MaxRating+RatingEpsilon; v += RatingStep {
		r := Rating{UserID: 1, MovieID: 1, Rating: v}
		if !r.Valid() {
			t.Errorf("Valid() = false for on-scale rating %v", v)
		}
	}
}

func TestCleanReportDropped(t *testing.T) {
	report := CleanReport{RowsRead: 100, RowsKept: 87}
	if got := report.Dropped(); got != 13 {
		t.Errorf("Dropped() = %d, want 13", got)
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleViewer, true},
		{RoleAnalyst, true},
		{RoleAdmin, true},
		{"editor", false},
		{"", false},
		{"ADMIN", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			if got := IsValidRole(tt.role); got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUserRoleExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		role UserRole
		want bool
	}{
		{"no expiry never expires", UserRole{}, false},
		{"future expiry not expired", UserRole{ExpiresAt: &future}, false},
		{"past expiry expired", UserRole{ExpiresAt: &past}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.role.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsValidAnalysisKind(t *testing.T) {
	for _, kind := range ValidAnalysisKinds {
		if !IsValidAnalysisKind(kind) {
			t.Errorf("IsValidAnalysisKind(%q) = false, want true", kind)
		}
	}
	if IsValidAnalysisKind("topicmodel") {
		t.Error("IsValidAnalysisKind(topicmodel) = true, want false")
	}
	if IsValidAnalysisKind("") {
		t.Error("IsValidAnalysisKind(\"\") = true, want false")
	}
}
