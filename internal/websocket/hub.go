// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/logging"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown
	// path (SIGTERM via the supervisor).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline indicates the shutdown deadline
	// expired, which may mean a hung operation.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication
const (
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeRating            = "rating"
	MessageTypeTrainingProgress  = "training_progress"
	MessageTypeTrainingCompleted = "training_completed"
	MessageTypeIngestCompleted   = "ingest_completed"
	MessageTypeScrapeProgress    = "scrape_progress"
	MessageTypeAnalysisCompleted = "analysis_completed"
	MessageTypeStatsUpdate       = "stats_update"
)

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the hub (blocks forever, no context support).
//
// Deprecated: Use RunWithContext for supervised operation.
func (h *Hub) Run() {
	for {
		// Lifecycle events first: Go's select picks randomly among
		// ready channels, and client state must settle before fan-out.
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// RunWithContext starts the hub with context support for graceful
// shutdown. Designed for suture supervision: when the context is
// canceled all connected clients are closed and ctx.Err() is
// returned, so a supervisor restart never inherits orphaned
// connections.
//
// Channels are serviced in priority order: shutdown, then client
// lifecycle, then broadcasts.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Shutdown has the highest priority (non-blocking check)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Client lifecycle next (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
		}

		// Broadcasts, or block until any event arrives
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs structured shutdown
// information. ctx.Err() is not logged as an error because
// cancellation is the expected shutdown path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to all connected clients.
// Clients are visited in connection-ID order so delivery order is
// reproducible. A client whose send buffer is full is dropped rather
// than allowed to stall everyone behind it.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
}

// closeAllClients closes connected clients in connection-ID order.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastJSON sends a typed message to all connected clients.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// TrainingProgressData is sent with training_progress messages.
type TrainingProgressData struct {
	Timestamp     string  `json:"timestamp"`
	Stage         string  `json:"stage"` // preparing, training, evaluating
	Epoch         int     `json:"epoch"`
	TotalEpochs   int     `json:"total_epochs"`
	Loss          float64 `json:"loss,omitempty"`
	CorrelationID string  `json:"correlation_id,omitempty"`
}

// BroadcastTrainingProgress notifies all clients of model training progress.
func (h *Hub) BroadcastTrainingProgress(stage string, epoch, totalEpochs int, loss float64, correlationID string) {
	data := TrainingProgressData{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Stage:         stage,
		Epoch:         epoch,
		TotalEpochs:   totalEpochs,
		Loss:          loss,
		CorrelationID: correlationID,
	}

	message := Message{
		Type: MessageTypeTrainingProgress,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().
			Int("clients", h.GetClientCount()).
			Str("stage", stage).
			Int("epoch", epoch).
			Msg("broadcast training_progress")
	default:
		logging.Warn().Msg("broadcast channel full, dropping training_progress message")
	}
}

// TrainingCompletedData is sent with training_completed messages.
type TrainingCompletedData struct {
	Timestamp  string `json:"timestamp"`
	ModelID    string `json:"model_id"`
	Factors    int    `json:"factors"`
	Epochs     int    `json:"epochs"`
	DurationMs int64  `json:"duration_ms"`
}

// BroadcastTrainingCompleted notifies all clients that a trained model
// became active.
func (h *Hub) BroadcastTrainingCompleted(modelID string, factors, epochs int, durationMs int64) {
	data := TrainingCompletedData{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		ModelID:    modelID,
		Factors:    factors,
		Epochs:     epochs,
		DurationMs: durationMs,
	}

	message := Message{
		Type: MessageTypeTrainingCompleted,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Str("model_id", modelID).Msg("broadcast training_completed")
	default:
		logging.Warn().Msg("broadcast channel full, dropping training_completed message")
	}
}

// IngestCompletedData is sent with ingest_completed messages.
type IngestCompletedData struct {
	Timestamp  string `json:"timestamp"`
	Ratings    int64  `json:"ratings"`
	Movies     int64  `json:"movies"`
	DurationMs int64  `json:"duration_ms"`
}

// BroadcastIngestCompleted notifies all clients that a dataset ingest finished.
func (h *Hub) BroadcastIngestCompleted(ratings, movies, durationMs int64) {
	data := IngestCompletedData{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Ratings:    ratings,
		Movies:     movies,
		DurationMs: durationMs,
	}

	message := Message{
		Type: MessageTypeIngestCompleted,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Int64("ratings", ratings).Msg("broadcast ingest_completed")
	default:
		logging.Warn().Msg("broadcast channel full, dropping ingest_completed message")
	}
}

// ScrapeProgressData is sent with scrape_progress messages.
type ScrapeProgressData struct {
	Timestamp string `json:"timestamp"`
	RunID     string `json:"run_id"`
	Status    string `json:"status"` // running, completed, error
	Page      int    `json:"page"`
	Rows      int    `json:"rows"`
	FromCache bool   `json:"from_cache,omitempty"`
}

// BroadcastScrapeProgress notifies all clients of scrape run progress.
func (h *Hub) BroadcastScrapeProgress(runID, status string, page, rows int, fromCache bool) {
	data := ScrapeProgressData{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunID:     runID,
		Status:    status,
		Page:      page,
		Rows:      rows,
		FromCache: fromCache,
	}

	message := Message{
		Type: MessageTypeScrapeProgress,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().
			Int("clients", h.GetClientCount()).
			Str("run_id", runID).
			Int("page", page).
			Msg("broadcast scrape_progress")
	default:
		logging.Warn().Msg("broadcast channel full, dropping scrape_progress message")
	}
}

// AnalysisCompletedData is sent with analysis_completed messages.
type AnalysisCompletedData struct {
	Timestamp  string `json:"timestamp"`
	Kind       string `json:"kind"` // rules, cluster, regress, classify
	AnalysisID string `json:"analysis_id"`
	DurationMs int64  `json:"duration_ms"`
}

// BroadcastAnalysisCompleted notifies all clients that an analysis run finished.
func (h *Hub) BroadcastAnalysisCompleted(kind, analysisID string, durationMs int64) {
	data := AnalysisCompletedData{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Kind:       kind,
		AnalysisID: analysisID,
		DurationMs: durationMs,
	}

	message := Message{
		Type: MessageTypeAnalysisCompleted,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Info().Int("clients", h.GetClientCount()).Str("kind", kind).Msg("broadcast analysis_completed")
	default:
		logging.Warn().Msg("broadcast channel full, dropping analysis_completed message")
	}
}

// StatsUpdateData is sent with stats_update messages.
type StatsUpdateData struct {
	Timestamp    string `json:"timestamp"`
	TotalRatings int64  `json:"total_ratings"`
	Users        int64  `json:"users"`
	Movies       int64  `json:"movies"`
	DataVersion  uint64 `json:"data_version"`
}

// BroadcastStatsUpdate notifies all clients that dataset counters changed.
func (h *Hub) BroadcastStatsUpdate(totalRatings, users, movies int64, dataVersion uint64) {
	data := StatsUpdateData{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		TotalRatings: totalRatings,
		Users:        users,
		Movies:       movies,
		DataVersion:  dataVersion,
	}

	message := Message{
		Type: MessageTypeStatsUpdate,
		Data: data,
	}

	select {
	case h.broadcast <- message:
		logging.Debug().Int("clients", h.GetClientCount()).Int64("total_ratings", totalRatings).Msg("broadcast stats_update")
	default:
		logging.Warn().Msg("broadcast channel full, dropping stats_update message")
	}
}

// BroadcastRaw parses raw JSON bytes as a rating event and broadcasts
// it to clients. This satisfies the event pipeline's Broadcaster
// interface; the payload passed through the pipeline is forwarded
// as-is so clients see every field of the landed event.
func (h *Hub) BroadcastRaw(data []byte) {
	var rawEvent map[string]interface{}
	if err := json.Unmarshal(data, &rawEvent); err != nil {
		logging.Warn().Err(err).Msg("failed to unmarshal raw event for broadcast")
		return
	}

	message := Message{
		Type: MessageTypeRating,
		Data: rawEvent,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Msg("broadcast channel full, dropping raw message")
	}
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
