// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/models"
	ws "github.com/tomtom215/lodestone/internal/websocket"
)

// testDBGate serializes in-memory database creation. Concurrent DuckDB
// CGO calls from parallel tests can hang under CI resource pressure.
var testDBGate = make(chan struct{}, 1)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBGate <- struct{}{}
	t.Cleanup(func() { <-testDBGate })

	db, err := database.New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "1GB",
	})
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedBase anchors seeded timestamps so assertions stay deterministic.
var seedBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// seedCatalog loads eight movies and twenty ratings across five users.
// Movie 8 stays unrated and genre-less. With a liked threshold of 3.5,
// users 1-3 all like movies 1 and 2, so the rule 1=>2 holds with
// support 0.6 and confidence 1.0.
func seedCatalog(t *testing.T, db *database.DB) {
	t.Helper()

	movies := []struct {
		id     int64
		title  string
		year   int
		genres string
	}{
		{1, "Toy Story (1995)", 1995, "Adventure|Comedy"},
		{2, "Jumanji (1995)", 1995, "Adventure|Children"},
		{3, "Heat (1995)", 1995, "Action|Crime"},
		{4, "GoldenEye (1995)", 1995, "Action|Thriller"},
		{5, "Casino (1995)", 1995, "Crime|Drama"},
		{6, "Sense and Sensibility (1995)", 1995, "Drama|Romance"},
		{7, "Twelve Monkeys (1995)", 1995, "Sci-Fi|Thriller"},
		{8, "Ghost (1990)", 1990, ""},
	}
	for _, m := range movies {
		if _, err := db.Conn().Exec(
			`INSERT INTO movies (movie_id, title, year, genres) VALUES (?, ?, ?, ?)`,
			m.id, m.title, m.year, m.genres); err != nil {
			t.Fatalf("seeding movie %d: %v", m.id, err)
		}
	}

	ratings := []struct {
		userID  int64
		movieID int64
		rating  float64
	}{
		{1, 1, 5.0}, {1, 2, 4.0}, {1, 3, 2.0}, {1, 5, 3.0},
		{2, 1, 4.5}, {2, 2, 4.0}, {2, 4, 3.0}, {2, 6, 4.0},
		{3, 1, 4.0}, {3, 2, 5.0}, {3, 3, 4.0}, {3, 7, 2.5},
		{4, 1, 3.0}, {4, 3, 5.0}, {4, 5, 4.5}, {4, 6, 2.0},
		{5, 2, 4.5}, {5, 4, 4.0}, {5, 5, 2.0}, {5, 7, 4.0},
	}
	for i, r := range ratings {
		if _, err := db.Conn().Exec(
			`INSERT INTO ratings (user_id, movie_id, rating, rated_at) VALUES (?, ?, ?, ?)`,
			r.userID, r.movieID, r.rating, seedBase.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("seeding rating %d: %v", i, err)
		}
	}
	db.IncrementDataVersion()
}

func testConfig() *config.Config {
	return &config.Config{
		Dataset: config.DatasetConfig{
			MinRatingsPerItem: 1,
			LikedThreshold:    3.5,
		},
		Security: config.SecurityConfig{
			CORSOrigins: []string{"*"},
		},
	}
}

// newTestHandler builds a handler over a seeded in-memory database
// with a running WebSocket hub and no event pipeline or engine.
func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	db := newTestDB(t)
	seedCatalog(t, db)

	wsHub := ws.NewHub()
	go wsHub.Run()

	return NewHandler(db, nil, nil, testConfig(), wsHub)
}

// decodeEnvelope unmarshals the standard response envelope.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response envelope: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

// dataMap returns the envelope's data field as a map.
func dataMap(t *testing.T, resp models.APIResponse) map[string]interface{} {
	t.Helper()

	m, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is %T, want map", resp.Data)
	}
	return m
}

// checkErrorCode asserts an error envelope with the given status and code.
func checkErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, status, rec.Body.String())
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "error" {
		t.Errorf("envelope status = %q, want error", resp.Status)
	}
	if resp.Error == nil {
		t.Fatal("envelope has no error")
	}
	if resp.Error.Code != code {
		t.Errorf("error code = %q, want %q", resp.Error.Code, code)
	}
}

func TestNewHandler(t *testing.T) {
	wsHub := ws.NewHub()
	go wsHub.Run()

	handler := NewHandler(nil, nil, nil, testConfig(), wsHub)
	if handler == nil {
		t.Fatal("NewHandler returned nil")
	}
	if handler.statsCache == nil {
		t.Error("stats cache not initialized")
	}
	if handler.startTime.IsZero() {
		t.Error("start time not set")
	}
}

func TestCheckWebSocketOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		corsOrigins   []string
		requestOrigin string
		want          bool
	}{
		{
			name:          "missing origin header rejected",
			corsOrigins:   []string{"http://localhost:8580"},
			requestOrigin: "",
			want:          false,
		},
		{
			name:          "wildcard allows any origin",
			corsOrigins:   []string{"*"},
			requestOrigin: "http://example.com",
			want:          true,
		},
		{
			name:          "exact match allowed",
			corsOrigins:   []string{"http://localhost:8580"},
			requestOrigin: "http://localhost:8580",
			want:          true,
		},
		{
			name:          "mismatch rejected",
			corsOrigins:   []string{"http://localhost:8580"},
			requestOrigin: "http://evil.example.com",
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig()
			cfg.Security.CORSOrigins = tt.corsOrigins
			h := NewHandler(nil, nil, nil, cfg, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}
			if got := h.checkWebSocketOrigin(req); got != tt.want {
				t.Errorf("checkWebSocketOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_NilHub(t *testing.T) {
	h := NewHandler(nil, nil, nil, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	rec := httptest.NewRecorder()
	h.WebSocket(rec, req)

	checkErrorCode(t, rec, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	data := dataMap(t, resp)
	if data["status"] != "healthy" {
		t.Errorf("health status = %v, want healthy", data["status"])
	}
	if data["database_connected"] != true {
		t.Error("database_connected = false, want true")
	}
	if data["models_trained"] != false {
		t.Error("models_trained = true with no engine")
	}
}

func TestHealth_NoDatabase(t *testing.T) {
	h := NewHandler(nil, nil, nil, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["status"] != "degraded" {
		t.Errorf("health status = %v, want degraded", data["status"])
	}
}

func TestHealthLive(t *testing.T) {
	h := NewHandler(nil, nil, nil, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["alive"] != true {
		t.Error("alive = false")
	}
}

func TestHealthReady(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	h.HealthReady(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data := dataMap(t, decodeEnvelope(t, rec))
	if data["ready_to_serve"] != true {
		t.Error("ready_to_serve = false with live database")
	}
}

func TestHealthReady_NoDatabase(t *testing.T) {
	h := NewHandler(nil, nil, nil, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
	rec := httptest.NewRecorder()
	h.HealthReady(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
