// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/evaluate"
	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/recommend/algorithms"
)

// EvaluateOptions holds options for the evaluate command.
type EvaluateOptions struct {
	Algorithm    string
	K            int
	TestFraction float64
	Seed         int64
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand() *cobra.Command {
	opts := &EvaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a recommendation algorithm offline",
		Long: `Train one algorithm on a per-user holdout split of the ratings file
and report ranking metrics at k: precision, recall, NDCG and hit rate.
Items a user saw during training are excluded from their ranking, so
the metrics measure genuine generalization.`,
		Example: `  # ALS with the configured hyperparameters
  lodestone evaluate --ratings ratings.csv

  # Item-item neighborhood model at a deeper cutoff
  lodestone evaluate --algorithm item_knn --k 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Algorithm, "algorithm", "a", "als", "Algorithm: als, item_knn, user_knn")
	cmd.Flags().IntVar(&opts.K, "k", 10, "Ranking cutoff")
	cmd.Flags().Float64Var(&opts.TestFraction, "test-fraction", defaultTestFraction, "Fraction of each user's ratings held out")
	cmd.Flags().Int64Var(&opts.Seed, "seed", defaultSplitSeed, "Random seed for the split")

	_ = cmd.RegisterFlagCompletionFunc("algorithm", completeAlgorithms)

	return cmd
}

func completeAlgorithms(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"als", "item_knn", "user_knn"}, cobra.ShellCompDirectiveNoFileComp
}

// buildAlgorithm constructs an untrained algorithm by name.
func buildAlgorithm(name string, cfg *recommend.Config) recommend.Algorithm {
	switch name {
	case "item_knn":
		return algorithms.NewItemKNN(cfg.ItemKNN)
	case "user_knn":
		return algorithms.NewUserKNN(cfg.UserKNN)
	default:
		return algorithms.NewALS(cfg.ALS, cfg.Seed)
	}
}

func runEvaluate(cmd *cobra.Command, opts *EvaluateOptions) error {
	w, err := workbench()
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

	split, err := evaluate.HoldoutSplit(interactions, opts.TestFraction, opts.Seed)
	if err != nil {
		return err
	}

	alg := buildAlgorithm(opts.Algorithm, w.engineConfig())
	if err := alg.Train(cmd.Context(), split.Train); err != nil {
		return err
	}

	evaluator := evaluate.NewEvaluator(evaluate.EvaluatorConfig{K: opts.K})
	result, err := evaluator.Evaluate(cmd.Context(), alg, split.Train, split.Test)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		return renderJSON(out, struct {
			Algorithm string           `json:"algorithm"`
			TrainSize int              `json:"train_size"`
			TestSize  int              `json:"test_size"`
			Result    *evaluate.Result `json:"result"`
		}{opts.Algorithm, len(split.Train), len(split.Test), result})
	}

	renderRows(out, w.Format, []string{"Measure", "Value"}, [][]string{
		{"algorithm", opts.Algorithm},
		{"train size", formatInt(len(split.Train))},
		{"test size", formatInt(len(split.Test))},
		{"k", formatInt(result.K)},
		{"precision", formatFloat(result.Precision)},
		{"recall", formatFloat(result.Recall)},
		{"NDCG", formatFloat(result.NDCG)},
		{"hit rate", formatFloat(result.HitRate)},
		{"users", formatInt(result.Users)},
		{"cold users", formatInt(result.ColdUsers)},
	})
	return nil
}
