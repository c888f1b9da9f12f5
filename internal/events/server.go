// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/lodestone/internal/config"
)

// ServerConfig holds embedded NATS server settings.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// ServerConfigFromEvents maps the application events configuration to
// embedded server settings, taking host and port from the client URL.
func ServerConfigFromEvents(cfg *config.EventsConfig) ServerConfig {
	sc := ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          cfg.StoreDir,
		JetStreamMaxMem:   cfg.JetStreamMaxMemory,
		JetStreamMaxStore: cfg.JetStreamMaxStore,
	}
	if u, err := url.Parse(cfg.URL); err == nil && u.Host != "" {
		if host := u.Hostname(); host != "" {
			sc.Host = host
		}
		if port, err := strconv.Atoi(u.Port()); err == nil {
			sc.Port = port
		}
	}
	return sc
}

// EmbeddedServer wraps the NATS server with lifecycle management.
// It provides a self-contained JetStream instance for single-node
// deployments without external dependencies.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer creates and starts an embedded NATS server.
// The server is configured for JetStream with the specified limits.
// Returns an error if the server fails to start within 30 seconds.
func NewEmbeddedServer(cfg *ServerConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "lodestone-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.JetStreamMaxMem,
		JetStreamMaxStore:  cfg.JetStreamMaxStore,
		Debug:              false,
		Trace:              false,
		NoLog:              true, // Structured logging happens at the pipeline level
		MaxPayload:         1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	// Start in background
	go ns.Start()

	// Wait for ready with timeout
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within timeout")
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown gracefully stops the server.
// Waits for in-flight messages to complete or context cancellation.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// IsRunning returns server health status.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled returns whether JetStream is enabled.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}
