// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/dataset"
)

// CleanOptions holds options for the clean command.
type CleanOptions struct {
	MinRatings  int
	DropUnknown bool
	Out         string
	Report      string
}

// NewCleanCommand creates the clean command.
func NewCleanCommand() *cobra.Command {
	opts := &CleanOptions{MinRatings: -1}
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean a ratings CSV and write the surviving rows",
		Long: `Apply the hygiene pass to a ratings file: drop rows with invalid or
out-of-range values, remove duplicate (user, movie) pairs keeping the
latest rating, optionally drop ratings of movies absent from the
catalog, and filter out items with too few ratings.

The cleaned rows are written to --out as a new CSV. The input file is
never modified. An accounting report showing what was dropped and why
is printed, and can also be exported with --report: an .xlsx path gets
a two-sheet workbook, any other path a plain CSV.`,
		Example: `  # Clean with the configured popularity floor
  lodestone clean --ratings ratings.csv --movies movies.csv --out cleaned.csv

  # Keep only items with 10 or more ratings, drop unknown movie refs
  lodestone clean --min-ratings 10 --drop-unknown --out cleaned.csv

  # Also export the accounting report as a workbook
  lodestone clean --out cleaned.csv --report clean-report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClean(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.MinRatings, "min-ratings", -1, "Drop items rated fewer times than this (default from config)")
	cmd.Flags().BoolVar(&opts.DropUnknown, "drop-unknown", false, "Drop ratings whose movie is absent from the catalog")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Path for the cleaned ratings CSV (required)")
	cmd.Flags().StringVar(&opts.Report, "report", "", "Optional path for the accounting report (.xlsx or .csv)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runClean(cmd *cobra.Command, opts *CleanOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, loadStats, err := w.loadRatings("")
	if err != nil {
		return err
	}
	movies, _, err := w.loadMovies("")
	if err != nil && opts.DropUnknown {
		return fmt.Errorf("--drop-unknown needs a movie catalog: %w", err)
	}

	minRatings := opts.MinRatings
	if minRatings < 0 {
		minRatings = w.Config.Dataset.MinRatingsPerItem
	}

	result := dataset.Clean(ratings, movies, loadStats, dataset.CleanOptions{
		MinRatingsPerItem: minRatings,
		DropUnknownMovies: opts.DropUnknown,
	})

	outPath := w.artifactPath(opts.Out)
	if err := dataset.WriteRatingsCSV(outPath, result.Ratings); err != nil {
		return err
	}

	if opts.Report != "" {
		reportPath := w.artifactPath(opts.Report)
		if strings.EqualFold(filepath.Ext(reportPath), ".xlsx") {
			stats := dataset.Describe(result.Ratings, movies)
			if err := dataset.WriteCleanReportXLSX(reportPath, result.Report, stats); err != nil {
				return err
			}
		} else if err := dataset.WriteCleanReportCSV(reportPath, result.Report); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		return renderJSON(out, struct {
			Report  interface{} `json:"report"`
			Dropped int         `json:"dropped"`
			Out     string      `json:"out"`
		}{result.Report, result.Report.Dropped(), outPath})
	}

	rep := result.Report
	rows := [][]string{
		{"rows read", formatInt(rep.RowsRead)},
		{"rows kept", formatInt(rep.RowsKept)},
		{"dropped", formatInt(rep.Dropped())},
		{"duplicates", formatInt(rep.Duplicates)},
		{"out of range", formatInt(rep.OutOfRange)},
		{"missing fields", formatInt(rep.MissingFields)},
		{"unpopular items", formatInt(rep.UnpopularItems)},
		{"unknown movie refs", formatInt(rep.UnknownMovieRef)},
	}
	renderRows(out, w.Format, []string{"Measure", "Count"}, rows)
	fmt.Fprintf(out, "wrote %d rows to %s\n", len(result.Ratings), outPath)
	return nil
}
