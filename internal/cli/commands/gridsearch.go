// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/evaluate"
	"github.com/tomtom215/lodestone/internal/recommend"
)

// GridSearchOptions holds options for the gridsearch command.
type GridSearchOptions struct {
	Algorithm string
	Folds     int
	K         int
	Seed      int64
	Params    []string
}

// NewGridSearchCommand creates the gridsearch command.
func NewGridSearchCommand() *cobra.Command {
	opts := &GridSearchOptions{}
	cmd := &cobra.Command{
		Use:   "gridsearch",
		Short: "Cross-validated hyperparameter search",
		Long: `Evaluate every combination of the given parameter values with k-fold
cross-validation and report the best by mean NDCG. Each --param flag
names one dimension with its comma-separated candidate values; the
cartesian product of all dimensions is searched.

Parameter names per algorithm:
  als       factors, lambda, alpha, iterations
  item_knn  neighbors, shrinkage, min_common, min_similarity
  user_knn  neighbors, shrinkage, min_common, min_similarity`,
		Example: `  # Tune ALS rank and regularization
  lodestone gridsearch --param factors=16,32,64 --param lambda=0.01,0.1

  # Tune item k-NN neighborhood size over five folds
  lodestone gridsearch --algorithm item_knn --param neighbors=20,50,100 --folds 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGridSearch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "als", "Algorithm: als, item_knn, user_knn")
	cmd.Flags().IntVar(&opts.Folds, "folds", 3, "Cross-validation folds")
	cmd.Flags().IntVar(&opts.K, "k", 10, "Ranking cutoff")
	cmd.Flags().Int64Var(&opts.Seed, "seed", defaultSplitSeed, "Random seed for fold assignment")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Grid dimension as name=v1,v2,... (repeatable)")
	_ = cmd.MarkFlagRequired("param")

	_ = cmd.RegisterFlagCompletionFunc("algorithm", completeAlgorithms)

	return cmd
}

// algorithmFactory returns a grid-search factory by name.
func algorithmFactory(name string, cfg *recommend.Config, seed int64) evaluate.AlgorithmFactory {
	switch name {
	case "item_knn":
		return evaluate.ItemKNNFactory(cfg.ItemKNN)
	case "user_knn":
		return evaluate.UserKNNFactory(cfg.UserKNN)
	default:
		return evaluate.ALSFactory(cfg.ALS, seed)
	}
}

// parseGrid turns repeated name=v1,v2,... flags into a search grid.
func parseGrid(specs []string) (evaluate.Grid, error) {
	grid := make(evaluate.Grid, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("bad grid dimension %q, want name=v1,v2,...", spec)
		}
		var values []float64
		for _, raw := range strings.Split(list, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q in grid dimension %q: %w", raw, name, err)
			}
			values = append(values, v)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("grid dimension %q has no values", name)
		}
		grid[name] = values
	}
	return grid, nil
}

func runGridSearch(cmd *cobra.Command, opts *GridSearchOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	grid, err := parseGrid(opts.Params)
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	provider := newCSVDataProvider(ratings, movies)
	interactions, err := provider.GetInteractions(cmd.Context(), time.Time{})
	if err != nil {
		return err
	}
	if len(interactions) < opts.Folds {
		return fmt.Errorf("fewer interactions (%d) than folds (%d)", len(interactions), opts.Folds)
	}

	factory := algorithmFactory(opts.Algorithm, w.engineConfig(), opts.Seed)
	evaluator := evaluate.NewEvaluator(evaluate.EvaluatorConfig{K: opts.K})
	result, err := evaluator.GridSearch(cmd.Context(), factory, grid, interactions, opts.Folds, opts.Seed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		return renderJSON(out, struct {
			Algorithm    string                     `json:"algorithm"`
			Interactions int                        `json:"interactions"`
			Result       *evaluate.GridSearchResult `json:"result"`
		}{opts.Algorithm, len(interactions), result})
	}

	renderRows(out, w.Format, []string{"Measure", "Value"}, [][]string{
		{"algorithm", opts.Algorithm},
		{"interactions", formatInt(len(interactions))},
		{"folds", formatInt(result.Folds)},
		{"best params", formatParams(result.Best)},
		{"best NDCG", formatFloat(result.BestScore)},
	})

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(result.Runs))
	for _, run := range result.Runs {
		scores := make([]string, len(run.FoldScores))
		for i, s := range run.FoldScores {
			scores[i] = formatFloat(s)
		}
		rows = append(rows, []string{
			formatParams(run.Params),
			strings.Join(scores, " "),
			formatFloat(run.MeanScore),
		})
	}
	renderRows(out, w.Format, []string{"Params", "Fold Scores", "Mean NDCG"}, rows)
	return nil
}

// formatParams renders a parameter set with names sorted for stable
// output.
func formatParams(params evaluate.Params) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + strconv.FormatFloat(params[name], 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}
