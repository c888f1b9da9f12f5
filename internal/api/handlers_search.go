// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/events"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
)

// TitleSearchResult is the fuzzy title search payload.
type TitleSearchResult struct {
	Query   string                `json:"query"`
	Matches []database.TitleMatch `json:"matches"`
}

// SearchTitles godoc
// @Summary Fuzzy-search movie titles
// @Description Ranks catalog titles against the query with fuzzy string matching on a 0-100 scale
// @Tags Search
// @Produce json
// @Param q query string true "Search query"
// @Param min_score query int false "Minimum match score" default(60)
// @Param limit query int false "Maximum matches" default(10)
// @Success 200 {object} models.APIResponse{data=api.TitleSearchResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /search/titles [get]
func (h *Handler) SearchTitles(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "MISSING_QUERY", "Query parameter q is required", errors.New("empty search query"))
		return
	}
	minScore := getIntParam(r, "min_score", 0)
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	matches, err := h.db.SearchTitles(ctx, query, minScore, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "SEARCH_FAILED", "Title search failed", err)
		return
	}

	respondSuccess(w, http.StatusOK, &TitleSearchResult{Query: query, Matches: matches}, start)
}

// CreateRatingResult reports how a submitted rating was handled.
type CreateRatingResult struct {
	UserID    int64   `json:"user_id"`
	MovieID   int64   `json:"movie_id"`
	Rating    float64 `json:"rating"`
	Published bool    `json:"published"`
	EventID   string  `json:"event_id,omitempty"`
}

// CreateRating godoc
// @Summary Submit a rating
// @Description Publishes the rating to the event pipeline when enabled, otherwise inserts it directly. Published ratings land asynchronously.
// @Tags Ratings
// @Accept json
// @Produce json
// @Param request body api.CreateRatingRequest true "Rating"
// @Success 201 {object} models.APIResponse{data=api.CreateRatingResult}
// @Success 202 {object} models.APIResponse{data=api.CreateRatingResult}
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /ratings [post]
func (h *Handler) CreateRating(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CreateRatingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	rating := models.Rating{
		UserID:    req.UserID,
		MovieID:   req.MovieID,
		Rating:    req.Rating,
		Timestamp: time.Now().UTC(),
	}
	if !rating.Valid() {
		respondError(w, http.StatusBadRequest, "INVALID_RATING", "Rating must be on the half-star scale between 0.5 and 5.0",
			errors.New("rating off the half-star scale"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result := &CreateRatingResult{
		UserID:  req.UserID,
		MovieID: req.MovieID,
		Rating:  req.Rating,
	}

	if h.pipeline != nil && h.pipeline.Enabled() {
		event := events.NewRatingEvent(events.SourceAPI)
		event.UserID = req.UserID
		event.MovieID = req.MovieID
		event.Rating = req.Rating

		err := h.pipeline.PublishRating(ctx, event)
		switch {
		case err == nil:
			result.Published = true
			result.EventID = event.EventID
			respondSuccess(w, http.StatusAccepted, result, start)
			return
		case errors.Is(err, events.ErrPipelineDisabled), errors.Is(err, events.ErrPipelineNotStarted):
			logging.Ctx(ctx).Debug().Err(err).Msg("Pipeline unavailable, inserting rating directly")
		default:
			respondError(w, http.StatusInternalServerError, "PUBLISH_FAILED", "Failed to publish rating event", err)
			return
		}
	}

	if err := h.db.InsertRating(ctx, &rating, "api"); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to store rating", err)
		return
	}
	respondSuccess(w, http.StatusCreated, result, start)
}
