// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/lodestone/internal/config"
)

// installWorkbench swaps in a test workbench and restores the previous
// package state when the test finishes.
func installWorkbench(t *testing.T, cfg *config.Config, format string) *Workbench {
	t.Helper()
	prev := current
	w := &Workbench{Config: cfg, Format: format}
	SetWorkbench(w)
	t.Cleanup(func() { current = prev })
	return w
}

// writeFixture writes content under dir and returns the full path.
func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// ratingsFixture covers three users over five movies, with one
// duplicate pair and one out-of-range value for the clean command.
const ratingsFixture = `userId,movieId,rating,timestamp
1,1,4.0,1000000000
1,2,3.5,1000000100
1,3,5.0,1000000200
2,1,4.5,1000000300
2,2,2.0,1000000400
2,4,4.0,1000000500
3,1,3.0,1000000600
3,3,4.5,1000000700
3,5,1.5,1000000800
3,5,2.5,1000000900
2,3,9.0,1000001000
`

const moviesFixture = `movieId,title,genres
1,Toy Story (1995),Adventure|Animation|Comedy
2,Jumanji (1995),Adventure|Children|Fantasy
3,Heat (1995),Action|Crime|Thriller
4,GoldenEye (1995),Action|Adventure|Thriller
5,Casino (1995),Crime|Drama
`

// fixtureConfig builds a config pointing at freshly written CSVs.
func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Dataset.RatingsPath = writeFixture(t, dir, "ratings.csv", ratingsFixture)
	cfg.Dataset.MoviesPath = writeFixture(t, dir, "movies.csv", moviesFixture)
	cfg.Dataset.ArtifactsDir = dir
	return cfg
}

func TestWorkbench_NotConfigured(t *testing.T) {
	prev := current
	current = nil
	t.Cleanup(func() { current = prev })

	if _, err := workbench(); err == nil {
		t.Fatal("workbench() without setup should error")
	}
}

func TestLoadRatings_NoPath(t *testing.T) {
	w := installWorkbench(t, &config.Config{}, "table")

	_, _, err := w.loadRatings("")
	if err == nil || !strings.Contains(err.Error(), "no ratings file") {
		t.Fatalf("loadRatings(\"\") error = %v, want missing-path error", err)
	}
}

func TestLoadRatings_ExplicitPathWins(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dataset.RatingsPath = "/nonexistent/ratings.csv"
	w := installWorkbench(t, cfg, "table")

	path := writeFixture(t, t.TempDir(), "ratings.csv", ratingsFixture)
	ratings, stats, err := w.loadRatings(path)
	if err != nil {
		t.Fatalf("loadRatings(%q) error = %v", path, err)
	}
	if len(ratings) != 11 {
		t.Errorf("len(ratings) = %d, want 11", len(ratings))
	}
	if stats.RowsParsed != 11 {
		t.Errorf("RowsParsed = %d, want 11", stats.RowsParsed)
	}
}

func TestLoadCatalog(t *testing.T) {
	w := installWorkbench(t, fixtureConfig(t), "table")

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		t.Fatalf("loadCatalog() error = %v", err)
	}
	if len(ratings) != 11 {
		t.Errorf("len(ratings) = %d, want 11", len(ratings))
	}
	if len(movies) != 5 {
		t.Errorf("len(movies) = %d, want 5", len(movies))
	}
	if movies[0].Year != 1995 {
		t.Errorf("movies[0].Year = %d, want 1995", movies[0].Year)
	}
}

func TestArtifactPath(t *testing.T) {
	cfg := &config.Config{}
	cfg.Dataset.ArtifactsDir = "/tmp/artifacts"
	w := installWorkbench(t, cfg, "table")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare name joins artifacts dir", "report.xlsx", filepath.Join("/tmp/artifacts", "report.xlsx")},
		{"absolute path passes through", "/data/out.csv", "/data/out.csv"},
		{"relative path with dir passes through", "out/cleaned.csv", "out/cleaned.csv"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.artifactPath(tt.in); got != tt.want {
				t.Errorf("artifactPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestArtifactPath_NoDirConfigured(t *testing.T) {
	w := installWorkbench(t, &config.Config{}, "table")

	if got := w.artifactPath("out.csv"); got != "out.csv" {
		t.Errorf("artifactPath(\"out.csv\") = %q, want unchanged", got)
	}
}

func TestLikedThreshold(t *testing.T) {
	cfg := &config.Config{}
	w := installWorkbench(t, cfg, "table")

	if got := w.likedThreshold(); got != 3.5 {
		t.Errorf("likedThreshold() default = %v, want 3.5", got)
	}

	cfg.Dataset.LikedThreshold = 4.0
	if got := w.likedThreshold(); got != 4.0 {
		t.Errorf("likedThreshold() configured = %v, want 4.0", got)
	}
}

func TestSplitIndices(t *testing.T) {
	train, test := splitIndices(10, 0.2, 42)

	if len(test) != 2 {
		t.Errorf("len(test) = %d, want 2", len(test))
	}
	if len(train) != 8 {
		t.Errorf("len(train) = %d, want 8", len(train))
	}

	seen := make(map[int]bool, 10)
	for _, i := range append(append([]int{}, train...), test...) {
		if seen[i] {
			t.Fatalf("index %d appears twice", i)
		}
		seen[i] = true
	}
	if len(seen) != 10 {
		t.Errorf("partition covers %d indices, want 10", len(seen))
	}
}

func TestSplitIndices_Deterministic(t *testing.T) {
	trainA, testA := splitIndices(50, 0.3, 7)
	trainB, testB := splitIndices(50, 0.3, 7)

	for i := range testA {
		if testA[i] != testB[i] {
			t.Fatalf("same seed produced different test sets at index %d", i)
		}
	}
	for i := range trainA {
		if trainA[i] != trainB[i] {
			t.Fatalf("same seed produced different train sets at index %d", i)
		}
	}
}

func TestSplitIndices_KeepsBothSides(t *testing.T) {
	// Tiny fractions still hold out one sample, huge ones keep one
	// for training.
	train, test := splitIndices(5, 0.01, 1)
	if len(test) != 1 || len(train) != 4 {
		t.Errorf("tiny fraction split = %d/%d, want 4/1", len(train), len(test))
	}

	train, test = splitIndices(5, 0.99, 1)
	if len(train) != 1 || len(test) != 4 {
		t.Errorf("huge fraction split = %d/%d, want 1/4", len(train), len(test))
	}
}

func TestGatherRows(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}}
	y := []float64{10, 20, 30, 40}

	gx, gy := gatherRows(X, y, []int{3, 1})
	if len(gx) != 2 || gx[0][0] != 4 || gx[1][0] != 2 {
		t.Errorf("gatherRows X = %v, want rows 3 then 1", gx)
	}
	if gy[0] != 40 || gy[1] != 20 {
		t.Errorf("gatherRows y = %v, want [40 20]", gy)
	}
}
