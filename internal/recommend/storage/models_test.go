// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/lodestone/internal/recommend/algorithms"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func sampleALSState(tag float64) algorithms.ALSState {
	return algorithms.ALSState{
		Users:       []int64{1, 2, 3},
		Items:       []int64{100, 200},
		UserFactors: [][]float64{{tag, 0.2}, {0.3, 0.4}, {0.5, 0.6}},
		ItemFactors: [][]float64{{0.7, 0.8}, {0.9, 1.0}},
		SeenItems:   [][]int{{0}, {1}, {0, 1}},
		Version:     1,
		TrainedAt:   time.Now(),
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "creates directory if not exists",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "models")
			},
		},
		{
			name: "uses existing directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.setup(t))
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if store == nil {
				t.Error("NewStore() returned nil store without error")
			}
		})
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := sampleALSState(0.1)
	meta := ModelMetadata{
		TrainedAt:        time.Now(),
		InteractionCount: 1000,
		ItemCount:        2,
		UserCount:        3,
	}

	if err := store.Save(ctx, "als", 1, state, meta); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var loaded algorithms.ALSState
	loadedMeta, err := store.Load(ctx, "als", 1, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedMeta.Name != "als" {
		t.Errorf("Name = %s, want als", loadedMeta.Name)
	}
	if loadedMeta.Version != 1 {
		t.Errorf("Version = %d, want 1", loadedMeta.Version)
	}
	if loadedMeta.InteractionCount != 1000 {
		t.Errorf("InteractionCount = %d, want 1000", loadedMeta.InteractionCount)
	}
	if loadedMeta.Checksum == "" {
		t.Error("Checksum should not be empty")
	}
	if loadedMeta.SizeBytes == 0 {
		t.Error("SizeBytes should not be zero")
	}
	if loadedMeta.SavedAt.IsZero() {
		t.Error("SavedAt should be set")
	}

	if len(loaded.UserFactors) != 3 {
		t.Errorf("len(UserFactors) = %d, want 3", len(loaded.UserFactors))
	}
	if loaded.UserFactors[0][0] != 0.1 {
		t.Errorf("UserFactors[0][0] = %f, want 0.1", loaded.UserFactors[0][0])
	}
	if len(loaded.Users) != 3 || loaded.Users[2] != 3 {
		t.Errorf("Users = %v, want [1 2 3]", loaded.Users)
	}
}

func TestStore_LoadLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for v := 1; v <= 3; v++ {
		if err := store.Save(ctx, "als", v, sampleALSState(float64(v)), ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	var loaded algorithms.ALSState
	loadedMeta, err := store.Load(ctx, "als", 0, &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loadedMeta.Version != 3 {
		t.Errorf("Version = %d, want 3 (latest)", loadedMeta.Version)
	}
	if loaded.UserFactors[0][0] != 3.0 {
		t.Errorf("UserFactors[0][0] = %f, want 3.0", loaded.UserFactors[0][0])
	}
}

func TestStore_GetLatestVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok := store.GetLatestVersion("als"); ok {
		t.Error("GetLatestVersion() should return false for missing model")
	}

	if err := store.Save(ctx, "als", 5, sampleALSState(1), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	version, ok := store.GetLatestVersion("als")
	if !ok {
		t.Fatal("GetLatestVersion() should return true after saving")
	}
	if version != 5 {
		t.Errorf("version = %d, want 5", version)
	}
}

func TestStore_RescanOnStartup(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := first.Save(ctx, "als", 2, sampleALSState(1), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// A fresh store over the same directory must pick up the file.
	second, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	version, ok := second.GetLatestVersion("als")
	if !ok || version != 2 {
		t.Errorf("GetLatestVersion() = %d, %v, want 2, true", version, ok)
	}
}

func TestStore_ListModels(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "als", 1, sampleALSState(1), ModelMetadata{InteractionCount: 100}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	popState := algorithms.PopularityState{
		Scores:    map[int64]float64{100: 1.0, 200: 0.5},
		Version:   1,
		TrainedAt: time.Now(),
	}
	if err := store.Save(ctx, "popularity", 1, popState, ModelMetadata{InteractionCount: 100}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	models, err := store.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("len(models) = %d, want 2", len(models))
	}

	found := make(map[string]bool)
	for _, m := range models {
		found[m.Name] = true
	}
	if !found["als"] || !found["popularity"] {
		t.Errorf("missing models in list: %v", found)
	}
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("removes only version", func(t *testing.T) {
		if err := store.Save(ctx, "als", 1, sampleALSState(1), ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := store.Delete(ctx, "als", 1); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if _, ok := store.GetLatestVersion("als"); ok {
			t.Error("model should not exist after delete")
		}

		var loaded algorithms.ALSState
		if _, err := store.Load(ctx, "als", 1, &loaded); err == nil {
			t.Error("Load() should fail after delete")
		}
	})

	t.Run("deleting latest falls back to previous", func(t *testing.T) {
		if err := store.Save(ctx, "popularity", 1, algorithms.PopularityState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Save(ctx, "popularity", 2, algorithms.PopularityState{}, ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := store.Delete(ctx, "popularity", 2); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		version, ok := store.GetLatestVersion("popularity")
		if !ok || version != 1 {
			t.Errorf("GetLatestVersion() = %d, %v, want 1, true", version, ok)
		}
	})
}

func TestStore_Prune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for v := 1; v <= 5; v++ {
		if err := store.Save(ctx, "als", v, sampleALSState(float64(v)), ModelMetadata{}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if err := store.Prune(ctx, "als", 2); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}

	version, ok := store.GetLatestVersion("als")
	if !ok || version != 5 {
		t.Errorf("GetLatestVersion() = %d, %v, want 5, true", version, ok)
	}

	var loaded algorithms.ALSState
	for v := 1; v <= 3; v++ {
		if _, err := store.Load(ctx, "als", v, &loaded); err == nil {
			t.Errorf("version %d should have been pruned", v)
		}
	}
	for v := 4; v <= 5; v++ {
		if _, err := store.Load(ctx, "als", v, &loaded); err != nil {
			t.Errorf("version %d should still exist: %v", v, err)
		}
	}
}

func TestStore_ChecksumValidation(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "als", 1, sampleALSState(1), ModelMetadata{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Flip bytes past the header to corrupt the payload.
	filename := filepath.Join(dir, "als_v1.gob.gz")
	f, err := os.OpenFile(filename, os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	if _, err := f.WriteAt([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 100); err != nil {
		t.Fatalf("corrupt file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	var loaded algorithms.ALSState
	if _, err := store.Load(ctx, "als", 1, &loaded); err == nil {
		t.Error("Load() should fail with corrupted data")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	done := make(chan struct{}, 10)
	for i := 1; i <= 10; i++ {
		go func(v int) {
			defer func() { done <- struct{}{} }()
			_ = store.Save(ctx, "als", v, sampleALSState(float64(v)), ModelMetadata{})
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	version, ok := store.GetLatestVersion("als")
	if !ok {
		t.Fatal("expected at least one stored version")
	}
	if version != 10 {
		t.Errorf("version = %d, want 10", version)
	}
}

func TestParseModelFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantName    string
		wantVersion int
		wantOK      bool
	}{
		{"als_v3.gob.gz", "als", 3, true},
		{"item_knn_v12.gob.gz", "item_knn", 12, true},
		{"noversion.gob.gz", "", 0, false},
		{"als_v0.gob.gz", "", 0, false},
		{"als_vx.gob.gz", "", 0, false},
		{"_v1.gob.gz", "", 0, false},
		{"als-12345.tmp", "", 0, false},
		{"als_v1.gob", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			name, version, ok := parseModelFilename(tt.filename)
			if name != tt.wantName || version != tt.wantVersion || ok != tt.wantOK {
				t.Errorf("parseModelFilename(%q) = %q, %d, %v; want %q, %d, %v",
					tt.filename, name, version, ok, tt.wantName, tt.wantVersion, tt.wantOK)
			}
		})
	}
}
