// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/tomtom215/lodestone/docs" // Import generated swagger docs
	"github.com/tomtom215/lodestone/internal/api"
	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/database"
	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/recommend"
	"github.com/tomtom215/lodestone/internal/supervisor"
	"github.com/tomtom215/lodestone/internal/supervisor/services"
	ws "github.com/tomtom215/lodestone/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Lodestone with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("ratings_path", cfg.Dataset.RatingsPath).
		Str("movies_path", cfg.Dataset.MoviesPath).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create structured logger for supervisor using our slog adapter
	// This bridges zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// WebSocket hub is created before the pipeline and engine so both
	// can broadcast to connected clients
	wsHub := ws.NewHub()

	pipeline := initEvents(cfg, db, wsHub, tree)

	recommendComponents := initRecommend(cfg, db, logging.Logger(), tree)
	var engine *recommend.Engine
	if recommendComponents != nil {
		engine = recommendComponents.Engine
	}

	authComponents, err := initAuth(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authentication")
	}
	defer closeStores(authComponents.Stores)

	warnInsecureConfig(cfg)

	handler := api.NewHandler(db, engine, pipeline, cfg, wsHub)

	var recommendHandler *api.RecommendHandler
	if engine != nil {
		recommendHandler = api.NewRecommendHandler(engine, wsHub)
	}

	router := api.NewRouter(api.RouterConfig{
		Handler:          handler,
		RecommendHandler: recommendHandler,
		AuthMiddleware:   authComponents.Middleware,
		AuthHandlers:     authComponents.Handlers,
		AuthzMiddleware:  authComponents.AuthzMiddleware,
		PolicyHandlers:   authComponents.PolicyHandlers,
		ChiMiddleware:    api.NewChiMiddlewareFromSecurity(&cfg.Security),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// === ADD SERVICES TO SUPERVISOR TREE ===
	// Data-layer services (the training service) were added by
	// initRecommend; the pipeline was added by initEvents.

	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// warnInsecureConfig logs loud warnings for configurations that are
// acceptable in development but dangerous on a public network.
func warnInsecureConfig(cfg *config.Config) {
	wildcardCORS := false
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			wildcardCORS = true
			break
		}
	}
	if wildcardCORS && cfg.Security.AuthMode != "none" {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: CORS is configured with wildcard origin (CORS_ORIGINS=*)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  This allows ANY website to make cross-origin requests to your API.")
		logging.Warn().Msg("  With authentication enabled, this creates a security vulnerability:")
		logging.Warn().Msg("  attackers can steal credentials via malicious websites.")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  RECOMMENDED: Set specific origins in production:")
		logging.Warn().Msg("    CORS_ORIGINS=https://yourdomain.com,https://app.yourdomain.com")
		logging.Warn().Msg("============================================================")
	}

	if cfg.Security.SessionStore == "memory" && cfg.IsProduction() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  NOTICE: Session store is set to 'memory' (SESSION_STORE=memory)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  Sessions will be lost when the server restarts!")
		logging.Warn().Msg("  For production consider:")
		logging.Warn().Msg("    SESSION_STORE=badger")
		logging.Warn().Msg("    SESSION_STORE_PATH=/data/sessions")
		logging.Warn().Msg("============================================================")
	}
}
