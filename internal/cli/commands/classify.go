// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/learn"
)

// ClassifyOptions holds options for the classify command.
type ClassifyOptions struct {
	Classifier     string
	Target         string
	K              int
	Metric         string
	LikedThreshold float64
	TestFraction   float64
	Seed           int64
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand() *cobra.Command {
	opts := &ClassifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Train a movie classifier and report held-out accuracy",
		Long: `Build per-movie features from the catalog and ratings, train a
classifier on a random split, and report accuracy, macro-averaged
precision, recall and F1, per-class metrics and the confusion matrix.

Targets:
  liked          predict whether a movie's mean rating clears the
                 liked threshold, from genre features only
  primary_genre  predict a movie's first genre from rating features

Columns that would leak the target are excluded from the design.`,
		Example: `  # k-NN on the liked target
  lodestone classify --ratings ratings.csv --movies movies.csv

  # Naive Bayes predicting the primary genre
  lodestone classify --classifier naive_bayes --target primary_genre

  # 10-NN with cosine distance and a bigger test split
  lodestone classify --k 10 --metric cosine --test-fraction 0.3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClassify(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Classifier, "classifier", "c", "knn", "Classifier: knn, naive_bayes")
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "liked", "Target label: liked, primary_genre")
	cmd.Flags().IntVar(&opts.K, "k", 5, "Number of neighbors for knn")
	cmd.Flags().StringVar(&opts.Metric, "metric", string(learn.Euclidean), "Distance metric: euclidean, manhattan, cosine")
	cmd.Flags().Float64Var(&opts.LikedThreshold, "liked-threshold", 0, "Rating at or above which a movie counts as liked (default from config)")
	cmd.Flags().Float64Var(&opts.TestFraction, "test-fraction", defaultTestFraction, "Fraction of movies held out for testing")
	cmd.Flags().Int64Var(&opts.Seed, "seed", defaultSplitSeed, "Random seed for the split")

	_ = cmd.RegisterFlagCompletionFunc("classifier", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"knn", "naive_bayes"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("metric", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(learn.Euclidean), string(learn.Manhattan), string(learn.Cosine)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runClassify(cmd *cobra.Command, opts *ClassifyOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	threshold := opts.LikedThreshold
	if threshold <= 0 {
		threshold = w.likedThreshold()
	}

	fs := learn.MovieFeatures(movies, ratings)
	X, labels := classifyDesign(fs, opts.Target, threshold)
	if len(X) < 4 {
		return errors.New("too few movies to classify")
	}
	X, _, _ = learn.Standardize(X)

	trainIdx, testIdx := splitIndices(len(X), opts.TestFraction, opts.Seed)
	trainX := make([][]float64, len(trainIdx))
	trainLabels := make([]string, len(trainIdx))
	for i, j := range trainIdx {
		trainX[i] = X[j]
		trainLabels[i] = labels[j]
	}
	testX := make([][]float64, len(testIdx))
	testLabels := make([]string, len(testIdx))
	for i, j := range testIdx {
		testX[i] = X[j]
		testLabels[i] = labels[j]
	}

	var predicted []string
	switch opts.Classifier {
	case "naive_bayes":
		nb := learn.NewGaussianNB()
		if err = nb.Fit(trainX, trainLabels); err == nil {
			predicted, err = nb.Predict(cmd.Context(), testX)
		}
	case "knn":
		knn := learn.NewKNNClassifier(opts.K, learn.DistanceMetric(opts.Metric))
		if err = knn.Fit(trainX, trainLabels); err == nil {
			predicted, err = knn.Predict(cmd.Context(), testX)
		}
	default:
		return fmt.Errorf("unknown classifier %q, want knn or naive_bayes", opts.Classifier)
	}
	if err != nil {
		return err
	}

	report, err := learn.EvaluateClassifier(predicted, testLabels)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		return renderJSON(out, struct {
			Classifier string                     `json:"classifier"`
			Target     string                     `json:"target"`
			TrainSize  int                        `json:"train_size"`
			TestSize   int                        `json:"test_size"`
			Report     learn.ClassificationReport `json:"report"`
		}{opts.Classifier, opts.Target, len(trainX), len(testX), report})
	}

	renderRows(out, w.Format, []string{"Measure", "Value"}, [][]string{
		{"classifier", opts.Classifier},
		{"target", opts.Target},
		{"train size", formatInt(len(trainX))},
		{"test size", formatInt(len(testX))},
		{"accuracy", formatFloat(report.Accuracy)},
		{"macro precision", formatFloat(report.MacroPrecision)},
		{"macro recall", formatFloat(report.MacroRecall)},
		{"macro F1", formatFloat(report.MacroF1)},
	})

	classes := sortedClasses(report.PerClass)
	perClass := make([][]string, 0, len(classes))
	for _, class := range classes {
		m := report.PerClass[class]
		perClass = append(perClass, []string{
			class,
			formatFloat(m.Precision),
			formatFloat(m.Recall),
			formatFloat(m.F1),
			formatInt(m.Support),
		})
	}
	fmt.Fprintln(out)
	renderRows(out, w.Format, []string{"Class", "Precision", "Recall", "F1", "Support"}, perClass)

	fmt.Fprintln(out)
	renderConfusion(out, w.Format, report.Confusion)
	return nil
}

// classifyDesign picks feature columns that do not leak the target:
// rating-derived columns are dropped when predicting liked, genre
// columns when predicting the primary genre.
func classifyDesign(fs *learn.FeatureSet, target string, likedThreshold float64) ([][]float64, []string) {
	numGenres := len(fs.Names) - 3

	var keep func(col int) bool
	var labels []string
	switch target {
	case "primary_genre":
		keep = func(col int) bool { return col >= numGenres }
		labels = fs.PrimaryGenre
	default:
		keep = func(col int) bool { return col < numGenres+1 }
		labels = fs.LikedLabels(likedThreshold)
	}

	X := make([][]float64, len(fs.X))
	for i, row := range fs.X {
		features := make([]float64, 0, len(row))
		for j, v := range row {
			if keep(j) {
				features = append(features, v)
			}
		}
		X[i] = features
	}
	return X, labels
}

func sortedClasses(perClass map[string]learn.ClassMetrics) []string {
	classes := make([]string, 0, len(perClass))
	for class := range perClass {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// renderConfusion prints the confusion matrix with actual labels as
// rows and predicted labels as columns.
func renderConfusion(out io.Writer, format string, confusion map[string]map[string]int) {
	labels := make(map[string]struct{})
	for actual, row := range confusion {
		labels[actual] = struct{}{}
		for predicted := range row {
			labels[predicted] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(labels))
	for label := range labels {
		ordered = append(ordered, label)
	}
	sort.Strings(ordered)

	header := append([]string{"Actual \\ Predicted"}, ordered...)
	rows := make([][]string, 0, len(ordered))
	for _, actual := range ordered {
		row := []string{actual}
		for _, predicted := range ordered {
			row = append(row, formatInt(confusion[actual][predicted]))
		}
		rows = append(rows, row)
	}
	renderRows(out, format, header, rows)
}
