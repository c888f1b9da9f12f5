// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Chi middleware factories for the workbench routes: CORS, per-class
// rate limits, request IDs with logging context, and security headers.
package api

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// chiMiddleware adapts http.HandlerFunc middleware to Chi's
// func(http.Handler) http.Handler shape, so the plain middleware in
// internal/middleware can sit in r.Use chains.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// ChiMiddlewareConfig holds configuration for the middleware factories.
type ChiMiddlewareConfig struct {
	// CORS configuration
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSExposedHeaders   []string
	CORSAllowCredentials bool
	CORSMaxAge           int // seconds

	// Rate limiting configuration
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration;
// this prevents accidental deployment with wildcard CORS.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{},
		CORSAllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders:   []string{"Content-Type", "Authorization"},
		CORSExposedHeaders:   []string{},
		CORSAllowCredentials: false,
		CORSMaxAge:           86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		RateLimitDisabled: false,
	}
}

// NewChiMiddlewareFromSecurity bridges the security section of the
// application config to the middleware factories.
func NewChiMiddlewareFromSecurity(sec *config.SecurityConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	if sec != nil {
		cfg.CORSAllowedOrigins = sec.CORSOrigins
		if sec.RateLimitReqs > 0 {
			cfg.RateLimitRequests = sec.RateLimitReqs
		}
		if sec.RateLimitWindow > 0 {
			cfg.RateLimitWindow = sec.RateLimitWindow
		}
		cfg.RateLimitDisabled = sec.RateLimitDisabled
	}
	return NewChiMiddleware(cfg)
}

// ChiMiddleware provides Chi-compatible middleware factories backed by
// the production-hardened go-chi ecosystem (cors, httprate).
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a middleware factory with the given configuration.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   cfg.CORSAllowedMethods,
		AllowedHeaders:   cfg.CORSAllowedHeaders,
		ExposedHeaders:   cfg.CORSExposedHeaders,
		AllowCredentials: cfg.CORSAllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: cfg,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors handler. Must be mounted globally so
// OPTIONS preflight requests are answered on every route.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the default per-IP rate limiter from the security
// config. Returns a no-op middleware when rate limiting is disabled.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RateLimitConfig defines rate limit parameters for a route class.
type RateLimitConfig struct {
	// Requests is the number of requests allowed in the window.
	Requests int
	// Window is the time window for rate limiting.
	Window time.Duration
}

// Route-class rate limits. Analysis and training runs hold CPU for
// seconds at a time, so their limits sit far below the default.
var (
	// RateLimitAuth covers authentication endpoints (brute force prevention).
	RateLimitAuth = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitLogin is stricter still for login attempts.
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitHealth allows frequent monitoring probes while still
	// bounding abuse.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}

	// RateLimitAnalyses bounds compute-heavy analysis runs.
	RateLimitAnalyses = RateLimitConfig{Requests: 12, Window: time.Minute}

	// RateLimitTrain bounds training and evaluation triggers, the most
	// expensive operations the server exposes.
	RateLimitTrain = RateLimitConfig{Requests: 4, Window: time.Minute}

	// RateLimitIngest bounds CSV ingestion, which rewrites whole tables.
	RateLimitIngest = RateLimitConfig{Requests: 10, Window: time.Minute}
)

// RateLimitCustom returns a per-IP rate limiter for a route class.
func (m *ChiMiddleware) RateLimitCustom(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.LimitByIP(cfg.Requests, cfg.Window)
}

// RequestIDWithLogging returns a middleware that adds an X-Request-ID
// header and threads request and correlation IDs into the zerolog
// context, so every log line written while serving the request can be
// traced back to it.
func RequestIDWithLogging() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		chiRequestID := chimiddleware.RequestID(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				// Generate before chi does so the logging context and
				// the header agree on the ID.
				requestID = logging.GenerateRequestID()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())

			chiRequestID.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APISecurityHeaders returns a middleware that adds baseline security
// headers to API responses. HSTS is added only when the request
// arrived over TLS or through a TLS-terminating proxy.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
