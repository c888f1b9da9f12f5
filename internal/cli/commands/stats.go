// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/dataset"
	"github.com/tomtom215/lodestone/internal/models"
)

// StatsOptions holds options for the stats command.
type StatsOptions struct {
	TopGenres int
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &StatsOptions{}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Describe a ratings dataset",
		Long: `Compute descriptive statistics over the ratings and movies files:
counts, sparsity, the rating value distribution, per-user and per-item
activity distributions, and genre frequencies.`,
		Example: `  # Describe the configured dataset
  lodestone stats

  # Describe explicit files, all genres, as JSON
  lodestone stats --ratings ratings.csv --movies movies.csv --top-genres 0 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.TopGenres, "top-genres", 10, "Number of genre rows to show, 0 for all")

	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	stats := dataset.Describe(ratings, movies)
	out := cmd.OutOrStdout()

	if w.Format == "json" {
		return renderJSON(out, stats)
	}

	summary := [][]string{
		{"ratings", formatInt(stats.NumRatings)},
		{"users", formatInt(stats.NumUsers)},
		{"movies", formatInt(stats.NumMovies)},
		{"sparsity", formatFloat(stats.Sparsity)},
	}
	if stats.FirstRating != nil {
		summary = append(summary, []string{"first rating", stats.FirstRating.Format(time.RFC3339)})
	}
	if stats.LastRating != nil {
		summary = append(summary, []string{"last rating", stats.LastRating.Format(time.RFC3339)})
	}
	renderRows(out, w.Format, []string{"Measure", "Value"}, summary)

	fmt.Fprintln(out)
	columns := [][]string{
		columnStatsRow("rating", stats.Ratings),
		columnStatsRow("ratings per user", stats.RatingsPerUser),
		columnStatsRow("ratings per item", stats.RatingsPerItem),
	}
	renderRows(out, w.Format,
		[]string{"Column", "Count", "Mean", "StdDev", "Min", "P25", "Median", "P75", "Max"},
		columns)

	if len(stats.GenreCounts) > 0 {
		fmt.Fprintln(out)
		renderRows(out, w.Format, []string{"Genre", "Movies"}, genreRows(stats.GenreCounts, opts.TopGenres))
	}
	return nil
}

func columnStatsRow(name string, cs models.ColumnStats) []string {
	return []string{
		name,
		formatInt(cs.Count),
		formatFloat2(cs.Mean),
		formatFloat2(cs.StdDev),
		formatFloat2(cs.Min),
		formatFloat2(cs.P25),
		formatFloat2(cs.Median),
		formatFloat2(cs.P75),
		formatFloat2(cs.Max),
	}
}

// genreRows sorts genres by descending count, name breaking ties, and
// truncates to top when top > 0.
func genreRows(counts map[string]int, top int) [][]string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if top > 0 && len(names) > top {
		names = names[:top]
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, formatInt(counts[name])})
	}
	return rows
}
