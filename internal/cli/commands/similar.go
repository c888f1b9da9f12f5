// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/recommend"
)

// SimilarOptions holds options for the similar command.
type SimilarOptions struct {
	Title string
	K     int
}

// NewSimilarCommand creates the similar command.
func NewSimilarCommand() *cobra.Command {
	opts := &SimilarOptions{}
	cmd := &cobra.Command{
		Use:   "similar [movieID]",
		Short: "Find movies similar to a movie",
		Long: `Rank the catalog by item-item similarity to one movie. The movie is
given either as a numeric identifier argument or by approximate title
with --title, which is resolved through the fuzzy matcher.`,
		Example: `  # Neighbors of movie 1 (Toy Story in MovieLens)
  lodestone similar 1 --ratings ratings.csv --movies movies.csv

  # Same movie by approximate title
  lodestone similar --title "toy story" --k 20`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimilar(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Approximate movie title")
	cmd.Flags().IntVar(&opts.K, "k", defaultRecommendK, "Number of similar movies")

	return cmd
}

func runSimilar(cmd *cobra.Command, args []string, opts *SimilarOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	var itemID int64
	var matched string
	switch {
	case len(args) == 1:
		itemID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil || itemID <= 0 {
			return fmt.Errorf("movie ID must be a positive integer, got %q", args[0])
		}
	case opts.Title != "":
		movie, err := resolveTitle(movies, opts.Title)
		if err != nil {
			return err
		}
		itemID = movie.MovieID
		matched = movie.Title
	default:
		return errors.New("give a movie ID argument or --title")
	}

	engine, err := w.trainEngine(cmd.Context(), ratings, movies)
	if err != nil {
		return err
	}

	resp, err := engine.Recommend(cmd.Context(), recommend.Request{
		CurrentItemID: itemID,
		K:             opts.K,
		Mode:          recommend.ModeSimilar,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if w.Format == "json" {
		return renderJSON(out, struct {
			MatchedTitle string              `json:"matched_title,omitempty"`
			Response     *recommend.Response `json:"response"`
		}{matched, resp})
	}

	if matched != "" {
		fmt.Fprintf(out, "matched %q\n", matched)
	}
	renderScoredItems(out, w.Format, resp)
	return nil
}
