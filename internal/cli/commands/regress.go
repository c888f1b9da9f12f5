// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/learn"
	"github.com/tomtom215/lodestone/internal/regress"
)

// RegressOptions holds options for the regress command.
type RegressOptions struct {
	Target       string
	TestFraction float64
	Seed         int64
}

// NewRegressCommand creates the regress command.
func NewRegressCommand() *cobra.Command {
	opts := &RegressOptions{}
	cmd := &cobra.Command{
		Use:   "regress",
		Short: "Fit a linear regression on movie features",
		Long: `Fit ordinary least squares predicting a movie's mean rating or its
rating count from the remaining features, report the intercept and
per-feature coefficients, and evaluate on a held-out split. Unrated
movies are excluded since they carry no signal for either target.`,
		Example: `  # Predict mean rating from genres and popularity
  lodestone regress --ratings ratings.csv --movies movies.csv

  # Predict rating count with a bigger holdout
  lodestone regress --target num_ratings --test-fraction 0.3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRegress(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "mean_rating", "Target column: mean_rating, num_ratings")
	cmd.Flags().Float64Var(&opts.TestFraction, "test-fraction", defaultTestFraction, "Fraction of movies held out for testing")
	cmd.Flags().Int64Var(&opts.Seed, "seed", defaultSplitSeed, "Random seed for the split")

	_ = cmd.RegisterFlagCompletionFunc("target", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mean_rating", "num_ratings"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRegress(cmd *cobra.Command, opts *RegressOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	fs := learn.MovieFeatures(movies, ratings)

	// Only rated movies carry signal for the rating-derived targets.
	X, y, names := regressDesign(fs, opts.Target)
	if len(X) < 4 {
		return errors.New("too few rated movies to fit a regression")
	}

	trainIdx, testIdx := splitIndices(len(X), opts.TestFraction, opts.Seed)
	trainX, trainY := gatherRows(X, y, trainIdx)
	testX, testY := gatherRows(X, y, testIdx)

	ols := regress.NewOLS()
	if err := ols.Fit(trainX, trainY); err != nil {
		return err
	}
	predicted, err := ols.Predict(testX)
	if err != nil {
		return err
	}
	report, err := regress.EvaluateRegression(predicted, testY)
	if err != nil {
		return err
	}

	coeffs := ols.Coefficients()
	out := cmd.OutOrStdout()

	if w.Format == "json" {
		type coefficient struct {
			Feature string  `json:"feature"`
			Weight  float64 `json:"weight"`
		}
		doc := struct {
			Target       string                    `json:"target"`
			TrainSize    int                       `json:"train_size"`
			TestSize     int                       `json:"test_size"`
			Intercept    float64                   `json:"intercept"`
			Coefficients []coefficient             `json:"coefficients"`
			Report       *regress.RegressionReport `json:"report"`
		}{opts.Target, len(trainX), len(testX), ols.Intercept(), make([]coefficient, 0, len(coeffs)), report}
		for i, c := range coeffs {
			name := ""
			if i < len(names) {
				name = names[i]
			}
			doc.Coefficients = append(doc.Coefficients, coefficient{Feature: name, Weight: c})
		}
		return renderJSON(out, doc)
	}

	renderRows(out, w.Format, []string{"Measure", "Value"}, [][]string{
		{"target", opts.Target},
		{"train size", formatInt(len(trainX))},
		{"test size", formatInt(len(testX))},
		{"intercept", formatFloat(ols.Intercept())},
		{"MSE", formatFloat(report.MSE)},
		{"RMSE", formatFloat(report.RMSE)},
		{"MAE", formatFloat(report.MAE)},
		{"R2", formatFloat(report.R2)},
	})

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(coeffs))
	for i, c := range coeffs {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		rows = append(rows, []string{name, formatFloat(c)})
	}
	renderRows(out, w.Format, []string{"Feature", "Weight"}, rows)
	return nil
}

// regressDesign builds the design matrix for a regression target,
// dropping the target column itself and unrated movies.
func regressDesign(fs *learn.FeatureSet, target string) (X [][]float64, y []float64, names []string) {
	targetCol := -1
	for i, name := range fs.Names {
		if name == target {
			targetCol = i
			continue
		}
		names = append(names, name)
	}

	for i, row := range fs.X {
		if fs.RatingCounts[i] == 0 {
			continue
		}
		features := make([]float64, 0, len(row)-1)
		for j, v := range row {
			if j == targetCol {
				continue
			}
			features = append(features, v)
		}
		X = append(X, features)
		if targetCol >= 0 {
			y = append(y, row[targetCol])
		}
	}
	return X, y, names
}
