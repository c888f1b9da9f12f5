// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability and caching information.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"total": 100, "results": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-25T12:00:00Z",
//	    "query_time_ms": 45
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "VALIDATION_ERROR",
//	    "message": "Invalid limit parameter",
//	    "details": {"field": "limit"}
//	  },
//	  "metadata": {"timestamp": "2026-08-25T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - QueryTimeMS: Query execution time in milliseconds (0 if cached)
//   - Cached: Whether response was served from cache (omitted if false)
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - DATABASE_ERROR: Query execution failure
//   - AUTHENTICATION_ERROR: Invalid/missing credentials
//   - AUTHORIZATION_ERROR: Insufficient permissions
//   - NOT_FOUND: Resource doesn't exist
//   - RATE_LIMIT_EXCEEDED: Too many requests
//   - NOT_TRAINED: Recommendation models not yet trained
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PaginationInfo contains cursor-based pagination metadata for efficient
// traversal of large result sets without offset scans.
//
// Cursor format: Base64-encoded JSON with timestamp + ID for stable sorting.
type PaginationInfo struct {
	Limit      int     `json:"limit"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
	PrevCursor *string `json:"prev_cursor,omitempty"`
	TotalCount *int    `json:"total_count,omitempty"` // Optional, expensive for large datasets
}

// RatingCursor encodes the position in a chronological rating listing.
// Uses timestamp + composite key as a tie-breaker so results do not shift
// when new ratings are inserted.
type RatingCursor struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	MovieID   int64     `json:"movie_id"`
}

// LoginRequest represents a login request for JWT authentication.
//
// Security:
//   - Password is transmitted in plaintext (HTTPS required)
//   - Password is compared against a bcrypt hash
//   - Rate limited per IP
type LoginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse represents a successful login response with JWT token.
//
// Token usage:
//   - Sent as Authorization: Bearer <token> header
//   - Validated on every protected endpoint
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	UserID    string    `json:"user_id"`
}
