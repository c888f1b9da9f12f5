// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tomtom215/lodestone/internal/fuzzy"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/recommend/algorithms"
	"github.com/tomtom215/lodestone/internal/recommend/reranking"
)

// titleMatchMinScore is the fuzzy score a title query must clear to
// resolve to a catalog movie, matching the search endpoint's default.
const titleMatchMinScore = 60

// mmrLambda balances relevance against diversity in the MMR reranker,
// the same value the server registers.
const mmrLambda = 0.7

// engineConfig builds the engine configuration from app config, the
// same mapping the server applies, so CLI results match what the API
// would serve. Hyperparameters exposed through the environment
// override defaults; blend weights and operational limits keep theirs.
func (w *Workbench) engineConfig() *recommend.Config {
	ec := recommend.DefaultConfig()
	ec.ALS = recommend.ALSParams{
		Factors:    w.Config.Recommend.ALS.Factors,
		Lambda:     w.Config.Recommend.ALS.Regularization,
		Alpha:      w.Config.Recommend.ALS.Alpha,
		Iterations: w.Config.Recommend.ALS.Iterations,
	}
	knn := recommend.KNNParams{
		Neighbors:     w.Config.Recommend.KNN.Neighbors,
		Similarity:    w.Config.Recommend.KNN.Similarity,
		Shrinkage:     w.Config.Recommend.KNN.Shrinkage,
		MinCommon:     w.Config.Recommend.KNN.MinCommonItems,
		MinSimilarity: ec.ItemKNN.MinSimilarity,
	}
	ec.ItemKNN = knn
	ec.UserKNN = knn
	ec.Training.MinInteractions = w.Config.Recommend.MinInteractions
	ec.Limits.MaxCandidates = w.Config.Recommend.MaxCandidates
	return ec
}

// trainEngine assembles the recommendation engine over in-memory CSV
// data, registers the configured algorithms and rerankers, and trains
// it.
func (w *Workbench) trainEngine(ctx context.Context, ratings []models.Rating, movies []models.Movie) (*recommend.Engine, error) {
	ec := w.engineConfig()
	engine, err := recommend.NewEngine(ec, logging.Logger())
	if err != nil {
		return nil, err
	}
	engine.SetDataProvider(newCSVDataProvider(ratings, movies))

	registered := 0
	for _, name := range w.Config.Recommend.Algorithms {
		switch name {
		case "als":
			engine.RegisterAlgorithm(algorithms.NewALS(ec.ALS, ec.Seed))
		case "itemknn":
			engine.RegisterAlgorithm(algorithms.NewItemKNN(ec.ItemKNN))
		case "userknn":
			engine.RegisterAlgorithm(algorithms.NewUserKNN(ec.UserKNN))
		case "popularity":
			engine.RegisterAlgorithm(algorithms.NewPopularity(ec.Popularity))
		default:
			return nil, fmt.Errorf("unknown algorithm %q in RECOMMEND_ALGORITHMS", name)
		}
		registered++
	}
	if registered == 0 {
		return nil, errors.New("no recommendation algorithms enabled")
	}

	engine.RegisterReranker(reranking.NewMMR(mmrLambda))
	engine.RegisterReranker(reranking.NewCalibration(reranking.CalibrationConfig{
		Lambda: 0.5,
		AttributeWeights: map[string]float64{
			"genre": 0.6,
			"year":  0.4,
		},
	}))

	if err := engine.Train(ctx); err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}
	return engine, nil
}

// resolveTitle fuzzy-matches a title query against the catalog and
// returns the matched movie.
func resolveTitle(movies []models.Movie, query string) (models.Movie, error) {
	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = m.Title
	}
	best, ok := fuzzy.NewMatcher(titles).Best(query, titleMatchMinScore)
	if !ok {
		return models.Movie{}, fmt.Errorf("no movie title matches %q", query)
	}
	return movies[best.Index], nil
}

// renderScoredItems prints a recommendation response.
func renderScoredItems(out io.Writer, format string, resp *recommend.Response) {
	rows := make([][]string, 0, len(resp.Items))
	for i, it := range resp.Items {
		genres := ""
		if len(it.Item.Genres) > 0 {
			genres = it.Item.Genres[0]
			for _, g := range it.Item.Genres[1:] {
				genres += ", " + g
			}
		}
		rows = append(rows, []string{
			formatInt(i + 1),
			formatInt64(it.Item.ID),
			it.Item.Title,
			genres,
			formatFloat(it.Score),
			it.Reason,
		})
	}
	renderRows(out, format, []string{"#", "ID", "Title", "Genres", "Score", "Reason"}, rows)
	fmt.Fprintf(out, "(%d items from %d candidates)\n", len(resp.Items), resp.TotalCandidates)
}
