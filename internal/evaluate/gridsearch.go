// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package evaluate

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/recommend/algorithms"
)

// Params is one point in a parameter grid. Integer parameters such as
// factor counts are carried as float64 and truncated by the factory.
type Params map[string]float64

// Grid maps parameter names to the candidate values to try. The
// cartesian product of all dimensions is searched.
type Grid map[string][]float64

// Combinations expands the grid into every parameter combination, in
// a deterministic order (dimensions sorted by name). Empty dimensions
// are ignored; an empty grid yields nil.
func (g Grid) Combinations() []Params {
	names := make([]string, 0, len(g))
	for name, values := range g {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	sort.Strings(names)

	combos := []Params{{}}
	for _, name := range names {
		next := make([]Params, 0, len(combos)*len(g[name]))
		for _, base := range combos {
			for _, value := range g[name] {
				p := make(Params, len(base)+1)
				for k, v := range base {
					p[k] = v
				}
				p[name] = value
				next = append(next, p)
			}
		}
		combos = next
	}
	return combos
}

// AlgorithmFactory builds a fresh, untrained algorithm for one
// parameter combination.
type AlgorithmFactory func(params Params) recommend.Algorithm

// GridRun records how one parameter combination scored.
type GridRun struct {
	Params Params `json:"params"`

	// FoldScores holds the NDCG at the evaluator's cutoff for each
	// cross-validation fold.
	FoldScores []float64 `json:"fold_scores"`

	// MeanScore is the mean of FoldScores.
	MeanScore float64 `json:"mean_score"`
}

// GridSearchResult holds the outcome of a cross-validated search.
type GridSearchResult struct {
	Best      Params    `json:"best"`
	BestScore float64   `json:"best_score"`
	Folds     int       `json:"folds"`
	Runs      []GridRun `json:"runs"`
}

// GridSearch trains and scores every combination in the grid with
// k-fold cross-validation and returns the combination with the best
// mean NDCG. Combinations run sequentially so only one model is in
// memory at a time; training itself parallelizes internally. Ties go
// to the earlier combination.
func (e *Evaluator) GridSearch(ctx context.Context, factory AlgorithmFactory, grid Grid, interactions []recommend.Interaction, folds int, seed int64) (*GridSearchResult, error) {
	if factory == nil {
		return nil, fmt.Errorf("algorithm factory is nil")
	}
	combos := grid.Combinations()
	if len(combos) == 0 {
		return nil, fmt.Errorf("parameter grid is empty")
	}

	splits, err := KFoldSplit(interactions, folds, seed)
	if err != nil {
		return nil, err
	}

	result := &GridSearchResult{
		Folds: folds,
		Runs:  make([]GridRun, 0, len(combos)),
	}
	best := -1
	for _, params := range combos {
		run := GridRun{
			Params:     params,
			FoldScores: make([]float64, 0, len(splits)),
		}
		for _, split := range splits {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			alg := factory(params)
			if alg == nil {
				return nil, fmt.Errorf("factory returned nil for params %v", params)
			}
			if err := alg.Train(ctx, split.Train); err != nil {
				return nil, fmt.Errorf("train %s with params %v: %w", alg.Name(), params, err)
			}
			res, err := e.Evaluate(ctx, alg, split.Train, split.Test)
			if err != nil {
				return nil, fmt.Errorf("evaluate %s with params %v: %w", alg.Name(), params, err)
			}
			run.FoldScores = append(run.FoldScores, res.NDCG)
		}

		total := 0.0
		for _, s := range run.FoldScores {
			total += s
		}
		run.MeanScore = total / float64(len(run.FoldScores))

		result.Runs = append(result.Runs, run)
		if best < 0 || run.MeanScore > result.Runs[best].MeanScore {
			best = len(result.Runs) - 1
		}
	}

	result.Best = result.Runs[best].Params
	result.BestScore = result.Runs[best].MeanScore
	return result, nil
}

// ALSFactory adapts an ALS parameter grid to the generic factory
// shape. Grid keys "factors", "lambda", "alpha" and "iterations"
// override the base parameters; anything else is ignored.
func ALSFactory(base recommend.ALSParams, seed int64) AlgorithmFactory {
	return func(params Params) recommend.Algorithm {
		cfg := base
		if v, ok := params["factors"]; ok {
			cfg.Factors = int(v)
		}
		if v, ok := params["lambda"]; ok {
			cfg.Lambda = v
		}
		if v, ok := params["alpha"]; ok {
			cfg.Alpha = v
		}
		if v, ok := params["iterations"]; ok {
			cfg.Iterations = int(v)
		}
		return algorithms.NewALS(cfg, seed)
	}
}

// ItemKNNFactory adapts an item-KNN parameter grid to the generic
// factory shape. Grid keys "neighbors", "shrinkage", "min_common" and
// "min_similarity" override the base parameters.
func ItemKNNFactory(base recommend.KNNParams) AlgorithmFactory {
	return func(params Params) recommend.Algorithm {
		return algorithms.NewItemKNN(applyKNNParams(base, params))
	}
}

// UserKNNFactory adapts a user-KNN parameter grid to the generic
// factory shape, with the same keys as ItemKNNFactory.
func UserKNNFactory(base recommend.KNNParams) AlgorithmFactory {
	return func(params Params) recommend.Algorithm {
		return algorithms.NewUserKNN(applyKNNParams(base, params))
	}
}

func applyKNNParams(base recommend.KNNParams, params Params) recommend.KNNParams {
	cfg := base
	if v, ok := params["neighbors"]; ok {
		cfg.Neighbors = int(v)
	}
	if v, ok := params["shrinkage"]; ok {
		cfg.Shrinkage = v
	}
	if v, ok := params["min_common"]; ok {
		cfg.MinCommon = int(v)
	}
	if v, ok := params["min_similarity"]; ok {
		cfg.MinSimilarity = v
	}
	return cfg
}
