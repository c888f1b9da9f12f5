// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/lodestone/internal/recommend"
)

const defaultRecommendK = 10

// RecommendOptions holds options for the recommend command.
type RecommendOptions struct {
	User    int64
	Title   string
	K       int
	Exclude []int64
}

// NewRecommendCommand creates the recommend command.
func NewRecommendCommand() *cobra.Command {
	opts := &RecommendOptions{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Generate recommendations from the ratings file",
		Long: `Train the configured recommendation algorithms over the ratings file
and print the top-k items.

With --user the recommendations are personalized to that user's rating
history. With --title the query is fuzzy-matched against the catalog
and movies similar to the match are returned, so typos like
"Toy Stroy" still resolve. With neither, the popularity ranking served
to cold users is shown.`,
		Example: `  # Personalized top ten for user 42
  lodestone recommend --ratings ratings.csv --movies movies.csv --user 42

  # Movies similar to an approximately spelled title
  lodestone recommend --title "Toy Stroy"

  # Popularity baseline, five items
  lodestone recommend --k 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRecommend(cmd, opts)
		},
	}

	cmd.Flags().Int64VarP(&opts.User, "user", "u", 0, "User to personalize for")
	cmd.Flags().StringVarP(&opts.Title, "title", "t", "", "Approximate movie title to find similar items for")
	cmd.Flags().IntVar(&opts.K, "k", defaultRecommendK, "Number of recommendations")
	cmd.Flags().Int64SliceVar(&opts.Exclude, "exclude", nil, "Movie IDs to exclude")
	cmd.MarkFlagsMutuallyExclusive("user", "title")

	return cmd
}

func runRecommend(cmd *cobra.Command, opts *RecommendOptions) error {
	w, err := workbench()
	if err != nil {
		return err
	}

	ratings, movies, err := w.loadCatalog()
	if err != nil {
		return err
	}

	req := recommend.Request{
		K:          opts.K,
		ExcludeIDs: opts.Exclude,
		Mode:       recommend.ModePopular,
	}
	var matched string
	switch {
	case opts.User > 0:
		req.UserID = opts.User
		req.Mode = recommend.ModePersonalized
	case opts.Title != "":
		movie, err := resolveTitle(movies, opts.Title)
		if err != nil {
			return err
		}
		req.CurrentItemID = movie.MovieID
		req.Mode = recommend.ModeSimilar
		matched = movie.Title
	}

	engine, err := w.trainEngine(cmd.Context(), ratings, movies)
	if err != nil {
		return err
	}

	resp, err := engine.Recommend(cmd.Context(), req)
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
