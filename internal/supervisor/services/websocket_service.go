// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method. The local
// interface keeps this package free of an import on internal/websocket.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService wraps the WebSocket hub as a supervised service.
//
// RunWithContext already follows the suture.Service contract, so the
// wrapper only delegates and provides a stable name for logs.
//
// Example:
//
//	hub := websocket.NewHub()
//	svc := services.NewWebSocketHubService(hub)
//	tree.AddMessagingService(svc)
type WebSocketHubService struct {
	hub  ContextHub
	name string
}

// NewWebSocketHubService creates a WebSocket hub service wrapper.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service. The hub processes registrations and
// broadcasts until the context is canceled, closes its clients, and
// returns ctx.Err().
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer; suture uses it to name the service
// in logs.
func (w *WebSocketHubService) String() string {
	return w.name
}
