// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/dataset"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// ingestTimeout bounds a CSV bulk load. Full MovieLens dumps run tens
// of millions of rows, so this is generous.
const ingestTimeout = 5 * time.Minute

// IngestRatings handles POST /api/v1/datasets/ratings
//
// @Summary Ingest a ratings CSV
// @Description Bulk-loads a MovieLens-shaped ratings CSV (userId,movieId,rating,timestamp) from a server-side path. Duplicate (user, movie) pairs keep the latest rating.
// @Tags Datasets
// @Accept json
// @Produce json
// @Param request body IngestRequest true "Server-side CSV path"
// @Success 200 {object} models.APIResponse{data=database.IngestResult} "Ingest summary"
// @Failure 400 {object} models.APIResponse "Invalid request or unreadable path"
// @Failure 500 {object} models.APIResponse "Ingest failed"
// @Router /datasets/ratings [post]
func (h *Handler) IngestRatings(w http.ResponseWriter, r *http.Request) {
	h.ingestCSV(w, r, "ratings", h.db.IngestRatingsCSV)
}

// IngestMovies handles POST /api/v1/datasets/movies
//
// @Summary Ingest a movies CSV
// @Description Bulk-loads a MovieLens-shaped movies CSV (movieId,title,genres) from a server-side path. Release years are extracted from titles.
// @Tags Datasets
// @Accept json
// @Produce json
// @Param request body IngestRequest true "Server-side CSV path"
// @Success 200 {object} models.APIResponse{data=database.IngestResult} "Ingest summary"
// @Failure 400 {object} models.APIResponse "Invalid request or unreadable path"
// @Failure 500 {object} models.APIResponse "Ingest failed"
// @Router /datasets/movies [post]
func (h *Handler) IngestMovies(w http.ResponseWriter, r *http.Request) {
	h.ingestCSV(w, r, "movies", h.db.IngestMoviesCSV)
}

// ingestCSV shares the ingest flow between the ratings and movies
// endpoints: decode the path, run the bulk load, record metrics, and
// broadcast the completion.
func (h *Handler) ingestCSV(w http.ResponseWriter, r *http.Request, source string, ingest func(context.Context, string) (*database.IngestResult, error)) {
	start := time.Now()

	var req IngestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	result, err := ingest(ctx, req.Path)
	metrics.RecordIngest(source+"_csv", time.Since(start), resultRows(result), err)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			respondError(w, http.StatusBadRequest, "INVALID_PATH", "CSV file not found or not readable", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "INGEST_FAILED", fmt.Sprintf("Failed to ingest %s CSV", source), err)
		return
	}

	h.markIngest()

	if h.wsHub != nil {
		switch source {
		case "ratings":
			h.wsHub.BroadcastIngestCompleted(result.RowsInserted, 0, result.Duration.Milliseconds())
		case "movies":
			h.wsHub.BroadcastIngestCompleted(0, result.RowsInserted, result.Duration.Milliseconds())
		}
	}

	respondSuccess(w, http.StatusOK, result, start)
}

func resultRows(result *database.IngestResult) int {
	if result == nil {
		return 0
	}
	return int(result.RowsRead)
}

// datasetStatsResponse bundles the describe-style statistics with the
// rating value histogram.
type datasetStatsResponse struct {
	Stats     interface{} `json:"stats"`
	Histogram interface{} `json:"histogram"`
}

// DatasetStats handles GET /api/v1/datasets/stats
//
// @Summary Dataset statistics
// @Description Returns describe-style statistics over the ingested ratings and movies (counts, rating distribution, per-user and per-item activity, sparsity, genre counts) plus a rating histogram
// @Tags Datasets
// @Produce json
// @Success 200 {object} models.APIResponse "Dataset statistics"
// @Failure 500 {object} models.APIResponse "Query failed"
// @Router /datasets/stats [get]
func (h *Handler) DatasetStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// The data version in the key invalidates cached stats on ingest.
	cacheKey := fmt.Sprintf("dataset_stats:%d", h.db.DataVersion())
	if h.statsCache != nil {
		if cached, ok := h.statsCache.Get(cacheKey); ok {
			metrics.RecordCacheAccess("dataset_stats", true)
			respondCached(w, cached, start)
			return
		}
		metrics.RecordCacheAccess("dataset_stats", false)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	stats, err := h.db.GetDatasetStats(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR", "Failed to compute dataset statistics", err)
		return
	}

	histogram, err := h.db.GetRatingHistogram(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR", "Failed to compute rating histogram", err)
		return
	}

	resp := datasetStatsResponse{Stats: stats, Histogram: histogram}
	if h.statsCache != nil {
		h.statsCache.Set(cacheKey, resp)
	}

	respondSuccess(w, http.StatusOK, resp, start)
}

// CleanDatasets handles POST /api/v1/datasets/clean
//
// @Summary Run the dataset hygiene audit
// @Description Runs the cleaning pass (range validation, duplicate detection, optional unknown-movie and popularity filters) over the ingested ratings and returns the accounting report. The database is not modified; destructive cleanup belongs to the CLI, which writes a cleaned CSV.
// @Tags Datasets
// @Accept json
// @Produce json
// @Param request body CleanRequest false "Cleaning options; defaults come from the dataset config"
// @Success 200 {object} models.APIResponse{data=models.CleanReport} "Clean report"
// @Failure 400 {object} models.APIResponse "Invalid request"
// @Failure 500 {object} models.APIResponse "Query failed"
// @Router /datasets/clean [post]
func (h *Handler) CleanDatasets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Defaults come from the dataset config; an empty body keeps them.
	var req CleanRequest
	if h.config != nil {
		req.MinRatingsPerItem = h.config.Dataset.MinRatingsPerItem
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	ratings, err := h.db.GetRatings(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR", "Failed to load ratings", err)
		return
	}

	movies, err := h.db.GetMovies(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "QUERY_ERROR", "Failed to load movies", err)
		return
	}

	result := dataset.Clean(ratings, movies, dataset.LoadStats{
		RowsRead:   len(ratings),
		RowsParsed: len(ratings),
	}, dataset.CleanOptions{
		MinRatingsPerItem: req.MinRatingsPerItem,
		DropUnknownMovies: req.DropUnknownMovies,
	})

	respondSuccess(w, http.StatusOK, result.Report, start)
}
