// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
	"github.com/tomtom215/lodestone/internal/validation"
)

// sanitizeLogValue removes control characters from strings to prevent
// log injection. Newlines, carriage returns and other control bytes in
// attacker-supplied values could otherwise forge log entries.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response with caching headers and an ETag.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.Header().Set("Vary", "Accept-Encoding")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	etag := generateETag(data)
	w.Header().Set("ETag", etag)

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// generateETag creates a simple ETag from data using FNV-1a hash
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return strconv.FormatUint(uint64(hash), 16)
}

// respondError sends an error envelope and logs the underlying cause.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "error",
		Data:   nil,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondSuccess sends a success envelope around data, stamping the
// query duration when start is non-zero.
func respondSuccess(w http.ResponseWriter, status int, data interface{}, start time.Time) {
	meta := models.Metadata{Timestamp: time.Now()}
	if !start.IsZero() {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// respondCached sends a success envelope around previously computed
// data, marking the response as served from cache.
func respondCached(w http.ResponseWriter, data interface{}, start time.Time) {
	meta := models.Metadata{
		Timestamp: time.Now(),
		Cached:    true,
	}
	if !start.IsZero() {
		meta.QueryTimeMS = time.Since(start).Milliseconds()
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: meta,
	})
}

// decodeJSON decodes a request body into v, rejecting unknown fields
// so typos in analysis parameters fail loudly instead of silently
// running with defaults.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes, or a models.APIError carrying the
// VALIDATION_ERROR code.
//
// Example:
//
//	var req MineRulesRequest
//	if err := decodeJSON(r, &req); err != nil { ... }
//	if apiErr := validateRequest(&req); apiErr != nil {
//	    respondValidationError(w, apiErr)
//	    return
//	}
func validateRequest(v interface{}) *models.APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &models.APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// respondValidationError sends a 400 with the full validation error,
// details included so clients see which fields failed and why.
func respondValidationError(w http.ResponseWriter, apiErr *models.APIError) {
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status: "error",
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
		Error: apiErr,
	})
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getFloatParam extracts a float query parameter with a default value.
func getFloatParam(r *http.Request, key string, defaultValue float64) float64 {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}

// parseCommaSeparatedInt64 parses a comma-separated ID list, skipping
// blanks and unparseable entries.
func parseCommaSeparatedInt64(value string) []int64 {
	if value == "" {
		return nil
	}

	var result []int64
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			result = append(result, id)
		}
	}
	return result
}
