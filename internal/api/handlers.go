// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/lodestone/internal/cache"
	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/events"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/models"
	"github.com/tomtom215/lodestone/internal/recommend"
	ws "github.com/tomtom215/lodestone/internal/websocket"
)

// appVersion is reported by the health endpoint.
const appVersion = "1.0.0"

// Handler carries the core API endpoints: health, dataset management,
// analysis runs, evaluation, title search, rating submission, and the
// WebSocket upgrade.
type Handler struct {
	db         *database.DB
	engine     *recommend.Engine
	pipeline   *events.Pipeline
	config     *config.Config
	wsHub      *ws.Hub
	statsCache *cache.Cache

	startTime time.Time

	mu         sync.Mutex
	lastIngest *time.Time
}

// NewHandler creates the core API handler.
//
// db is required for every data endpoint; the engine, pipeline, hub
// and config may be nil, in which case the endpoints depending on them
// respond 503 or degrade (health reports what is missing, ratings
// insert directly instead of publishing).
func NewHandler(db *database.DB, engine *recommend.Engine, pipeline *events.Pipeline, cfg *config.Config, wsHub *ws.Hub) *Handler {
	return &Handler{
		db:         db,
		engine:     engine,
		pipeline:   pipeline,
		config:     cfg,
		wsHub:      wsHub,
		statsCache: cache.New(5 * time.Minute),
		startTime:  time.Now(),
	}
}

// markIngest records the completion time the health endpoint reports.
func (h *Handler) markIngest() {
	now := time.Now().UTC()
	h.mu.Lock()
	h.lastIngest = &now
	h.mu.Unlock()
}

func (h *Handler) lastIngestTime() *time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastIngest
}

// Health handles health check requests
//
// @Summary Get system health status
// @Description Returns health status including database connectivity, model training state, event pipeline state, and uptime
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.HealthStatus} "Health status retrieved successfully"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	eventsEnabled := h.pipeline != nil && h.pipeline.Enabled()

	modelsTrained := false
	var lastTraining *time.Time
	if h.engine != nil {
		status := h.engine.GetStatus()
		modelsTrained = status.ModelVersion > 0
		if !status.LastTrainedAt.IsZero() {
			t := status.LastTrainedAt
			lastTraining = &t
		}
	}

	// Degraded when the database is down, or when the pipeline is
	// configured on but not consuming.
	status := "healthy"
	if !dbConnected {
		status = "degraded"
	} else if eventsEnabled && !h.pipeline.Running() {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           appVersion,
		DatabaseConnected: dbConnected,
		ModelsTrained:     modelsTrained,
		EventsEnabled:     eventsEnabled,
		LastIngestTime:    h.lastIngestTime(),
		LastTrainingTime:  lastTraining,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles liveness probe requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Kubernetes liveness probe
// @Description Returns 200 OK if the process is alive, regardless of external dependencies
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Service is alive"
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style)
// Returns 200 OK only if the service is ready to handle traffic
//
// @Summary Kubernetes readiness probe
// @Description Returns 200 OK when the database is reachable and, if events are enabled, the consumer is running. Returns 503 otherwise.
// @Tags Core
// @Accept json
// @Produce json
// @Success 200 {object} models.APIResponse "Service is ready"
// @Failure 503 {object} models.APIResponse "Service is not ready"
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	eventsEnabled := h.pipeline != nil && h.pipeline.Enabled()
	eventsRunning := !eventsEnabled || h.pipeline.Running()

	ready := dbConnected && eventsRunning

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"events_running":     eventsRunning,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// getUpgrader creates a WebSocket upgrader with origin checking and a
// handshake timeout against slow-client attacks.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
// Browser WebSockets always send Origin; an empty header means a
// non-browser client that bypassed CORS, so it is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// Nil config fails open for tests and development builds.
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers the client with the
// hub for training, ingest and analysis progress broadcasts.
//
// @Summary Live progress WebSocket
// @Description Upgrades to a WebSocket delivering training progress, ingest completion, scrape progress and stats updates
// @Tags Core
// @Success 101 "Switching Protocols"
// @Failure 503 {object} models.APIResponse "WebSocket service unavailable"
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
