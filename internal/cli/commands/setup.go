// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package commands implements the workbench subcommands. Each command
// is a thin wrapper over the library packages: it loads the configured
// CSV files, runs the analysis, and renders the result in the selected
// output format.
package commands

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/dataset"
	"github.com/tomtom215/lodestone/internal/models"
)

// Holdout split defaults shared by the model-fitting commands.
const (
	defaultTestFraction = 0.2
	defaultSplitSeed    = 42
)

// Workbench carries the state every subcommand shares: the loaded
// configuration and the output format from the root command.
type Workbench struct {
	Config *config.Config
	Format string
}

// current is installed by the root command before subcommands run.
var current *Workbench

// SetWorkbench installs the shared command state. The root command
// calls this from its PersistentPreRunE; tests call it directly.
func SetWorkbench(w *Workbench) {
	current = w
}

// workbench returns the installed state, failing loudly when a command
// somehow runs without the root command's setup.
func workbench() (*Workbench, error) {
	if current == nil || current.Config == nil {
		return nil, fmt.Errorf("configuration not loaded; run through the lodestone root command")
	}
	return current, nil
}

// loadRatings reads the ratings CSV, preferring an explicit per-command
// path over the configured one.
func (w *Workbench) loadRatings(path string) ([]models.Rating, dataset.LoadStats, error) {
	if path == "" {
		path = w.Config.Dataset.RatingsPath
	}
	if path == "" {
		return nil, dataset.LoadStats{}, fmt.Errorf("no ratings file: set --ratings or RATINGS_PATH")
	}
	return dataset.LoadRatings(path)
}

// loadMovies reads the movies CSV, preferring an explicit per-command
// path over the configured one.
func (w *Workbench) loadMovies(path string) ([]models.Movie, dataset.LoadStats, error) {
	if path == "" {
		path = w.Config.Dataset.MoviesPath
	}
	if path == "" {
		return nil, dataset.LoadStats{}, fmt.Errorf("no movies file: set --movies or MOVIES_PATH")
	}
	return dataset.LoadMovies(path)
}

// loadCatalog reads both CSV files for commands that build movie
// features or need titles alongside ratings.
func (w *Workbench) loadCatalog() ([]models.Rating, []models.Movie, error) {
	ratings, _, err := w.loadRatings("")
	if err != nil {
		return nil, nil, err
	}
	movies, _, err := w.loadMovies("")
	if err != nil {
		return nil, nil, err
	}
	return ratings, movies, nil
}

// artifactPath resolves a file name against the artifacts directory.
// Absolute paths and paths with separators pass through unchanged.
func (w *Workbench) artifactPath(name string) string {
	if name == "" || filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	dir := w.Config.Dataset.ArtifactsDir
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// likedThreshold returns the configured liked-rating cutoff.
func (w *Workbench) likedThreshold() float64 {
	if w.Config.Dataset.LikedThreshold > 0 {
		return w.Config.Dataset.LikedThreshold
	}
	return 3.5
}

// splitIndices shuffles 0..n-1 with the seed and cuts a holdout of
// roughly testFraction, keeping at least one sample on each side.
func splitIndices(n int, testFraction float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // reproducible splits, not cryptography
	cut := int(float64(n) * testFraction)
	if cut < 1 {
		cut = 1
	}
	if cut >= n {
		cut = n - 1
	}
	return perm[cut:], perm[:cut]
}

// gatherRows selects rows of X and y by index.
func gatherRows(X [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	outX := make([][]float64, len(idx))
	outY := make([]float64, len(idx))
	for i, j := range idx {
		outX[i] = X[j]
		outY[i] = y[j]
	}
	return outX, outY
}
