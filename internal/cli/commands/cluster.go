// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/cluster"
	"github.com/tomtom215/lodestone/internal/learn"
)

const defaultSampleTitles = 5

// ClusterOptions holds options for the cluster command.
type ClusterOptions struct {
	K             int
	MaxIterations int
	Tolerance     float64
	Seed          int64
	NoStandardize bool
	NoSilhouette  bool
	Samples       int
}

// NewClusterCommand creates the cluster command.
func NewClusterCommand() *cobra.Command {
	opts := &ClusterOptions{}
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Cluster the movie catalog with k-means",
		Long: `Run k-means over per-movie feature vectors built from genres and
rating aggregates, then summarize each cluster with its size and a few
sample titles. The silhouette score measures how well separated the
clusters are; skip it with --no-silhouette on large catalogs since it
is quadratic in the number of movies.`,
		Example: `  # Eight clusters over the configured dataset
  lodestone cluster --ratings ratings.csv --movies movies.csv

  # Five clusters on raw features, no silhouette
  lodestone cluster --k 5 --no-standardize --no-silhouette`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCluster(cmd, opts)
		},
	}

	defaults := cluster.DefaultKMeansConfig()
	cmd.Flags().IntVar(&opts.K, "k", defaults.K, "Number of clusters")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", defaults.MaxIterations, "Iteration cap")
	cmd.Flags().Float64Var(&opts.Tolerance, "tolerance", defaults.Tolerance, "Centroid movement below which iteration stops")
	cmd.Flags().Int64Var(&opts.Seed, "seed", defaults.Seed, "Random seed for centroid initialization")
	cmd.Flags().BoolVar(&opts.NoStandardize, "no-standardize", false, "Cluster raw feature values instead of z-scores")
	cmd.Flags().BoolVar(&opts.NoSilhouette, "no-silhouette", false, "Skip the silhouette score")
	cmd.Flags().IntVar(&opts.Samples, "samples", defaultSampleTitles, "Sample titles to show per cluster")

	return cmd
}

func runCluster(cmd *cobra.Command, opts *ClusterOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	cfg := cluster.DefaultKMeansConfig()
	cfg.K = opts.K
	cfg.MaxIterations = opts.MaxIterations
	cfg.Tolerance = opts.Tolerance
	cfg.Seed = opts.Seed

	if len(movies) < cfg.K {
		return fmt.Errorf("fewer movies (%d) than clusters (%d)", len(movies), cfg.K)
	}

	fs := learn.MovieFeatures(movies, ratings)
	X := fs.X
	if !opts.NoStandardize {
		X, _, _ = learn.Standardize(X)
	}

	km := cluster.NewKMeans(cfg)
	fit, err := km.Fit(cmd.Context(), X)
	if err != nil {
		return err
	}

	type group struct {
		Cluster      int      `json:"cluster"`
		Size         int      `json:"size"`
		SampleTitles []string `json:"sample_titles,omitempty"`
	}
	groups := make([]group, cfg.K)
	for i := range groups {
		groups[i].Cluster = i
	}
	for i, c := range fit.Assignments {
		groups[c].Size++
		if len(groups[c].SampleTitles) < opts.Samples {
			groups[c].SampleTitles = append(groups[c].SampleTitles, movies[i].Title)
		}
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Size > groups[j].Size
	})

	var silhouette *float64
	if !opts.NoSilhouette {
		s := cluster.Silhouette(X, fit.Assignments)
		silhouette = &s
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		return renderJSON(out, struct {
			K          int      `json:"k"`
			Movies     int      `json:"movies"`
			Iterations int      `json:"iterations"`
			Inertia    float64  `json:"inertia"`
			Silhouette *float64 `json:"silhouette,omitempty"`
			Clusters   []group  `json:"clusters"`
		}{cfg.K, len(movies), fit.Iterations, fit.Inertia, silhouette, groups})
	}

	summary := [][]string{
		{"k", formatInt(cfg.K)},
		{"movies", formatInt(len(movies))},
		{"iterations", formatInt(fit.Iterations)},
		{"inertia", formatFloat2(fit.Inertia)},
	}
	if silhouette != nil {
		summary = append(summary, []string{"silhouette", formatFloat(*silhouette)})
	}
	renderRows(out, w.Format, []string{"Measure", "Value"}, summary)

	fmt.Fprintln(out)
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{
			formatInt(g.Cluster),
			formatInt(g.Size),
			strings.Join(g.SampleTitles, ", "),
		})
	}
	renderRows(out, w.Format, []string{"Cluster", "Size", "Sample Titles"}, rows)
	return nil
}
