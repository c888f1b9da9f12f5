// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/evaluate"
	"github.com/tomtom215/lodestone/internal/models"
	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/recommend/algorithms"
)

// gridSearchTimeout bounds a grid search, which trains one model per
// parameter combination per fold.
const gridSearchTimeout = 10 * time.Minute

// EvaluateResult is the offline evaluation payload.
type EvaluateResult struct {
	RunID     string           `json:"run_id"`
	Algorithm string           `json:"algorithm"`
	TrainSize int              `json:"train_size"`
	TestSize  int              `json:"test_size"`
	Result    *evaluate.Result `json:"result"`
}

// GridSearchResponse is the hyperparameter search payload.
type GridSearchResponse struct {
	RunID        string                     `json:"run_id"`
	Algorithm    string                     `json:"algorithm"`
	Interactions int                        `json:"interactions"`
	Result       *evaluate.GridSearchResult `json:"result"`
}

// recommendBaseConfig returns the live engine configuration when an
// engine is attached, so evaluations measure the deployed parameters.
func (h *Handler) recommendBaseConfig() *recommend.Config {
	if h.engine != nil {
		return h.engine.GetConfig()
	}
	return recommend.DefaultConfig()
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

// EvaluateAlgorithm godoc
// @Summary Evaluate a recommendation algorithm offline
// @Description Trains the named algorithm on a per-user holdout split and reports precision, recall, NDCG and hit rate at k
// @Tags Evaluate
// @Accept json
// @Produce json
// @Param request body api.EvaluateRequest false "Evaluation parameters"
// @Success 200 {object} models.APIResponse{data=api.EvaluateResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /evaluate [post]
func (h *Handler) EvaluateAlgorithm(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req EvaluateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if req.Algorithm == "" {
		req.Algorithm = "als"
	}
	if req.K == 0 {
		req.K = 10
	}
	if req.TestFraction == 0 {
		req.TestFraction = defaultTestFraction
	}
	if req.Seed == 0 {
		req.Seed = defaultSplitSeed
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	runID, ok := h.startAnalysis(ctx, w, models.AnalysisEvaluate, req)
	if !ok {
		return
	}

	provider := database.NewRecommendationDataProvider(h.db)
	interactions, err := provider.GetInteractions(ctx, time.Time{})
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisEvaluate, start,
			http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load interactions", err)
		return
	}

	split, err := evaluate.HoldoutSplit(interactions, req.TestFraction, req.Seed)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisEvaluate, start,
			http.StatusBadRequest, "INSUFFICIENT_DATA", "Not enough interactions to split; ingest a dataset first", err)
		return
	}

	alg := buildAlgorithm(req.Algorithm, h.recommendBaseConfig())
	if err := alg.Train(ctx, split.Train); err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisEvaluate, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Algorithm training failed", err)
		return
	}

	evaluator := evaluate.NewEvaluator(evaluate.EvaluatorConfig{K: req.K})
	evalResult, err := evaluator.Evaluate(ctx, alg, split.Train, split.Test)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisEvaluate, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Evaluation failed", err)
		return
	}

	result := &EvaluateResult{
		RunID:     runID,
		Algorithm: req.Algorithm,
		TrainSize: len(split.Train),
		TestSize:  len(split.Test),
		Result:    evalResult,
	}

	h.completeAnalysis(ctx, runID, models.AnalysisEvaluate, result, start)
	respondSuccess(w, http.StatusOK, result, start)
}

// GridSearch godoc
// @Summary Cross-validated hyperparameter search
// @Description Evaluates every parameter combination in the grid with k-fold cross validation and returns the best by NDCG
// @Tags Evaluate
// @Accept json
// @Produce json
// @Param request body api.GridSearchRequest true "Grid search parameters"
// @Success 200 {object} models.APIResponse{data=api.GridSearchResponse}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /evaluate/gridsearch [post]
func (h *Handler) GridSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req GridSearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	if req.Algorithm == "" {
		req.Algorithm = "als"
	}
	if req.Folds == 0 {
		req.Folds = 3
	}
	if req.K == 0 {
		req.K = 10
	}
	if req.Seed == 0 {
		req.Seed = defaultSplitSeed
	}

	ctx, cancel := context.WithTimeout(r.Context(), gridSearchTimeout)
	defer cancel()

	runID, ok := h.startAnalysis(ctx, w, models.AnalysisGridSearch, req)
	if !ok {
		return
	}

	provider := database.NewRecommendationDataProvider(h.db)
	interactions, err := provider.GetInteractions(ctx, time.Time{})
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisGridSearch, start,
			http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load interactions", err)
		return
	}
	if len(interactions) < req.Folds {
		h.failAnalysis(ctx, w, runID, models.AnalysisGridSearch, start,
			http.StatusBadRequest, "INSUFFICIENT_DATA", "Fewer interactions than folds; ingest a dataset first",
			errors.New("not enough interactions"))
		return
	}

	factory := algorithmFactory(req.Algorithm, h.recommendBaseConfig(), req.Seed)
	evaluator := evaluate.NewEvaluator(evaluate.EvaluatorConfig{K: req.K})
	searchResult, err := evaluator.GridSearch(ctx, factory, evaluate.Grid(req.Grid), interactions, req.Folds, req.Seed)
	if err != nil {
		h.failAnalysis(ctx, w, runID, models.AnalysisGridSearch, start,
			http.StatusInternalServerError, "ANALYSIS_FAILED", "Grid search failed", err)
		return
	}

	result := &GridSearchResponse{
		RunID:        runID,
		Algorithm:    req.Algorithm,
		Interactions: len(interactions),
		Result:       searchResult,
	}

	h.completeAnalysis(ctx, runID, models.AnalysisGridSearch, result, start)
	respondSuccess(w, http.StatusOK, result, start)
}
