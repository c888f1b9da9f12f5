// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
	"github.com/tomtom215/lodestone/internal/recommend"
	ws "github.com/tomtom215/lodestone/internal/websocket"
)

// recommendTimeout bounds a single recommendation request.
const recommendTimeout = 10 * time.Second

// trainingTimeout bounds a background training run triggered over the
// API. The engine applies its own configured timeout inside this.
const trainingTimeout = 30 * time.Minute

// RecommendHandler fronts the recommendation engine.
type RecommendHandler struct {
	engine *recommend.Engine
	wsHub  *ws.Hub
}

// NewRecommendHandler creates the recommendation handler. The hub may
// be nil, in which case training events are not broadcast.
func NewRecommendHandler(engine *recommend.Engine, wsHub *ws.Hub) *RecommendHandler {
	return &RecommendHandler{engine: engine, wsHub: wsHub}
}

// requireEngine responds 503 when no engine is attached.
func (h *RecommendHandler) requireEngine(w http.ResponseWriter) bool {
	if h.engine == nil {
		respondError(w, http.StatusServiceUnavailable, "ENGINE_UNAVAILABLE", "Recommendation engine is not configured",
			errors.New("recommendation engine is nil"))
		return false
	}
	return true
}

// recommend runs one engine request with the shared timeout and error
// mapping.
func (h *RecommendHandler) recommend(w http.ResponseWriter, r *http.Request, req recommend.Request, start time.Time) {
	ctx, cancel := context.WithTimeout(r.Context(), recommendTimeout)
	defer cancel()

	req.RequestID = logging.RequestIDFromContext(ctx)

	resp, err := h.engine.Recommend(ctx, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_FAILED", "Failed to generate recommendations", err)
		return
	}

	respondSuccess(w, http.StatusOK, resp, start)
}

// GetRecommendations godoc
// @Summary Personalized recommendations for a user
// @Description Returns the top-k items for a user from the blended algorithm scores, with per-algorithm score breakdowns
// @Tags Recommendations
// @Produce json
// @Param userID path int true "User ID"
// @Param k query int false "Number of recommendations" default(10)
// @Param exclude query string false "Comma-separated movie IDs to exclude"
// @Success 200 {object} models.APIResponse{data=recommend.Response}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/user/{userID} [get]
func (h *RecommendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "User ID must be a positive integer", err)
		return
	}

	h.recommend(w, r, recommend.Request{
		UserID:     userID,
		K:          getIntParam(r, "k", 0),
		ExcludeIDs: parseCommaSeparatedInt64(r.URL.Query().Get("exclude")),
		Mode:       recommend.ModePersonalized,
	}, start)
}

// GetSimilar godoc
// @Summary Items similar to a movie
// @Description Returns the top-k neighbors of a movie from item-item similarity
// @Tags Recommendations
// @Produce json
// @Param itemID path int true "Movie ID"
// @Param k query int false "Number of similar items" default(10)
// @Success 200 {object} models.APIResponse{data=recommend.Response}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/similar/{itemID} [get]
func (h *RecommendHandler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}

	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_ITEM_ID", "Item ID must be a positive integer", err)
		return
	}

	h.recommend(w, r, recommend.Request{
		CurrentItemID: itemID,
		K:             getIntParam(r, "k", 0),
		Mode:          recommend.ModeSimilar,
	}, start)
}

// GetPopular godoc
// @Summary Popularity-ranked items
// @Description Returns the top-k items by confidence-weighted popularity, the same ranking served to cold users
// @Tags Recommendations
// @Produce json
// @Param k query int false "Number of items" default(10)
// @Success 200 {object} models.APIResponse{data=recommend.Response}
// @Failure 500 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/popular [get]
func (h *RecommendHandler) GetPopular(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}

	h.recommend(w, r, recommend.Request{
		K:    getIntParam(r, "k", 0),
		Mode: recommend.ModePopular,
	}, start)
}

// GetRecommendationStatus godoc
// @Summary Training status of the recommendation engine
// @Tags Recommendations
// @Produce json
// @Success 200 {object} models.APIResponse{data=recommend.TrainingStatus}
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/status [get]
func (h *RecommendHandler) GetRecommendationStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}
	respondSuccess(w, http.StatusOK, h.engine.GetStatus(), start)
}

// TriggerTraining godoc
// @Summary Retrain the recommendation models
// @Description Starts training in the background and returns immediately. Returns 409 when a training run is already active.
// @Tags Recommendations
// @Produce json
// @Success 202 {object} models.APIResponse
// @Failure 409 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/train [post]
func (h *RecommendHandler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}

	if h.engine.GetStatus().IsTraining {
		respondError(w, http.StatusConflict, "TRAINING_IN_PROGRESS", "A training run is already active",
			errors.New("training already in progress"))
		return
	}

	correlationID := logging.CorrelationIDFromContext(r.Context())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trainingTimeout)
		defer cancel()
		ctx = logging.ContextWithCorrelationID(ctx, correlationID)

		trainStart := time.Now()
		err := h.engine.Train(ctx)
		metrics.RecordTraining("engine", time.Since(trainStart), err)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Msg("Background training failed")
			return
		}

		status := h.engine.GetStatus()
		cfg := h.engine.GetConfig()
		logging.Ctx(ctx).Info().
			Int("model_version", status.ModelVersion).
			Int64("duration_ms", status.LastTrainingDurationMS).
			Msg("Background training complete")
		if h.wsHub != nil {
			h.wsHub.BroadcastTrainingCompleted(
				fmt.Sprintf("v%d", status.ModelVersion),
				cfg.ALS.Factors,
				cfg.ALS.Iterations,
				status.LastTrainingDurationMS,
			)
		}
	}()

	respondSuccess(w, http.StatusAccepted, map[string]string{
		"status": "training_started",
	}, start)
}

// GetRecommendationConfig godoc
// @Summary Current engine configuration
// @Tags Recommendations
// @Produce json
// @Success 200 {object} models.APIResponse{data=recommend.Config}
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/config [get]
func (h *RecommendHandler) GetRecommendationConfig(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}
	respondSuccess(w, http.StatusOK, h.engine.GetConfig(), start)
}

// UpdateRecommendationConfig godoc
// @Summary Update engine configuration
// @Description Merges the submitted fields over the current configuration and applies it after validation. Changes take effect on the next training run.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param request body recommend.Config true "Configuration fields to change"
// @Success 200 {object} models.APIResponse{data=recommend.Config}
// @Failure 400 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/config [put]
func (h *RecommendHandler) UpdateRecommendationConfig(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}

	// GetConfig returns a clone, so decoding over it merges the request
	// onto the current values without touching the live config.
	cfg := h.engine.GetConfig()
	if err := decodeJSON(r, cfg); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}

	if err := h.engine.UpdateConfig(cfg); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_CONFIG", "Configuration rejected", err)
		return
	}

	logging.Ctx(r.Context()).Info().Msg("Recommendation config updated")
	respondSuccess(w, http.StatusOK, h.engine.GetConfig(), start)
}

// AlgorithmInfo describes one algorithm in the blend.
type AlgorithmInfo struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// GetAlgorithms godoc
// @Summary List blended algorithms and their weights
// @Tags Recommendations
// @Produce json
// @Success 200 {object} models.APIResponse{data=[]api.AlgorithmInfo}
// @Failure 503 {object} models.APIResponse
// @Router /recommendations/algorithms [get]
func (h *RecommendHandler) GetAlgorithms(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if !h.requireEngine(w) {
		return
	}

	weights := h.engine.GetConfig().Weights
	algorithms := []AlgorithmInfo{
		{
			Name:        "als",
			Weight:      weights.ALS,
			Description: "Implicit-feedback alternating least squares matrix factorization",
		},
		{
			Name:        "item_knn",
			Weight:      weights.ItemKNN,
			Description: "Item-item cosine similarity over user rating vectors",
		},
		{
			Name:        "user_knn",
			Weight:      weights.UserKNN,
			Description: "User-user similarity with neighborhood rating aggregation",
		},
		{
			Name:        "popularity",
			Weight:      weights.Popularity,
			Description: "Confidence-weighted popularity with recency decay",
		},
	}

	respondSuccess(w, http.StatusOK, algorithms, start)
}
