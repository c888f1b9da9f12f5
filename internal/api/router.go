// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/lodestone/internal/auth"
	"github.com/tomtom215/lodestone/internal/authz"
	"github.com/tomtom215/lodestone/internal/middleware"
)

// Router wires the workbench handlers onto a Chi router with the
// middleware stack each route class needs.
type Router struct {
	handler          *Handler
	recommendHandler *RecommendHandler
	authMiddleware   *auth.Middleware
	authHandlers     *auth.AuthHandlers
	authzMiddleware  *authz.Middleware
	policyHandlers   *authz.PolicyHandlers
	chiMw            *ChiMiddleware
}

// RouterConfig names the components a Router serves. Handler is
// required; any nil optional component removes its routes or checks
// from the tree, which keeps partial wiring usable in tests.
type RouterConfig struct {
	Handler          *Handler
	RecommendHandler *RecommendHandler
	AuthMiddleware   *auth.Middleware
	AuthHandlers     *auth.AuthHandlers
	AuthzMiddleware  *authz.Middleware
	PolicyHandlers   *authz.PolicyHandlers
	ChiMiddleware    *ChiMiddleware
}

// NewRouter creates a router over the given components.
func NewRouter(cfg RouterConfig) *Router {
	chiMw := cfg.ChiMiddleware
	if chiMw == nil {
		chiMw = NewChiMiddleware(nil)
	}

	return &Router{
		handler:          cfg.Handler,
		recommendHandler: cfg.RecommendHandler,
		authMiddleware:   cfg.AuthMiddleware,
		authHandlers:     cfg.AuthHandlers,
		authzMiddleware:  cfg.AuthzMiddleware,
		policyHandlers:   cfg.PolicyHandlers,
		chiMw:            chiMw,
	}
}

// authenticate returns the session middleware, or a passthrough when
// the router was built without one.
func (router *Router) authenticate() func(http.Handler) http.Handler {
	if router.authMiddleware == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.authMiddleware.Authenticate
}

// authorize returns the RBAC middleware, or a passthrough when the
// router was built without one.
func (router *Router) authorize() func(http.Handler) http.Handler {
	if router.authzMiddleware == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return router.authzMiddleware.AuthorizeRequest
}

// Setup configures all HTTP routes and returns the root handler.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	// Applied to ALL routes in order
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMw.CORS()) // CORS must be global to handle OPTIONS preflight

	// ========================
	// Health Endpoints
	// ========================
	// No auth so orchestrators and load balancers can probe without
	// credentials. Permissive rate limit for frequent monitoring.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMw.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Authentication Endpoints
	// ========================
	// Login and the OIDC hops must stay reachable without a session;
	// the session management endpoints below them require one.
	if router.authHandlers != nil {
		r.Route("/api/v1/auth", func(r chi.Router) {
			r.Use(router.chiMw.RateLimitCustom(RateLimitAuth))
			r.Use(APISecurityHeaders())

			// Login has the strictest rate limiting (brute force prevention).
			r.With(router.chiMw.RateLimitCustom(RateLimitLogin)).Post("/login", router.authHandlers.Login)
			r.Get("/oidc/login", router.authHandlers.OIDCLogin)
			r.Get("/oidc/callback", router.authHandlers.OIDCCallback)

			r.Group(func(r chi.Router) {
				r.Use(router.authenticate())
				r.Post("/logout", router.authHandlers.Logout)
				r.Post("/logout-all", router.authHandlers.LogoutAll)
				r.Get("/userinfo", router.authHandlers.UserInfo)
				r.Get("/sessions", router.authHandlers.Sessions)
				r.Delete("/sessions/{sessionID}", router.revokeSession)
			})
		})
	}

	// ========================
	// Workbench Endpoints
	// ========================
	// Datasets, analyses, recommendations, evaluation, search, and
	// ratings all require authentication and pass the RBAC check.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMw.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(chiMiddleware(middleware.Compression))
		r.Use(router.authenticate())
		r.Use(router.authorize())

		r.Route("/datasets", func(r chi.Router) {
			// Ingestion rewrites whole tables; rate limit accordingly.
			r.With(router.chiMw.RateLimitCustom(RateLimitIngest)).Post("/ratings", router.handler.IngestRatings)
			r.With(router.chiMw.RateLimitCustom(RateLimitIngest)).Post("/movies", router.handler.IngestMovies)
			r.Get("/stats", router.handler.DatasetStats)
			r.Post("/clean", router.handler.CleanDatasets)
		})

		r.Route("/analyses", func(r chi.Router) {
			r.Use(router.chiMw.RateLimitCustom(RateLimitAnalyses))
			r.Get("/", router.handler.ListAnalyses)
			r.Get("/{runID}", router.handler.GetAnalysis)
			r.Post("/rules", router.handler.MineRules)
			r.Post("/cluster", router.handler.ClusterMovies)
			r.Post("/classify", router.handler.ClassifyMovies)
			r.Post("/regress", router.handler.RegressRatings)
		})

		r.Route("/evaluate", func(r chi.Router) {
			r.Use(router.chiMw.RateLimitCustom(RateLimitTrain))
			r.Post("/", router.handler.EvaluateAlgorithm)
			r.Post("/gridsearch", router.handler.GridSearch)
		})

		if router.recommendHandler != nil {
			r.Route("/recommendations", func(r chi.Router) {
				r.Get("/status", router.recommendHandler.GetRecommendationStatus)
				r.Get("/config", router.recommendHandler.GetRecommendationConfig)
				r.Put("/config", router.recommendHandler.UpdateRecommendationConfig)
				r.Get("/algorithms", router.recommendHandler.GetAlgorithms)
				r.Get("/popular", router.recommendHandler.GetPopular)
				r.Get("/user/{userID}", router.recommendHandler.GetRecommendations)
				r.Get("/similar/{itemID}", router.recommendHandler.GetSimilar)
				r.With(router.chiMw.RateLimitCustom(RateLimitTrain)).Post("/train", router.recommendHandler.TriggerTraining)
			})
		}

		r.Get("/search/titles", router.handler.SearchTitles)
		r.Post("/ratings", router.handler.CreateRating)
	})

	// ========================
	// WebSocket Endpoint
	// ========================
	// The upgrade hijacks the connection, so the metrics and
	// compression response wrappers stay out of this chain.
	r.Route("/api/v1/ws", func(r chi.Router) {
		r.Use(router.chiMw.RateLimit())
		r.Use(router.authenticate())
		r.Use(router.authorize())
		r.Get("/", router.handler.WebSocket)
	})

	// ========================
	// Policy Administration
	// ========================
	// Role and policy introspection. The RBAC policy itself restricts
	// these paths to the admin role.
	if router.policyHandlers != nil {
		r.Route("/api/v1/admin", func(r chi.Router) {
			r.Use(router.chiMw.RateLimit())
			r.Use(APISecurityHeaders())
			r.Use(chiMiddleware(middleware.PrometheusMetrics))
			r.Use(router.authenticate())
			r.Use(router.authorize())

			r.Get("/roles", router.policyHandlers.ListRoles)
			r.Get("/roles/{role}/permissions", router.rolePermissions)
			r.Post("/check", router.policyHandlers.CheckPermission)
			r.Get("/policies", router.policyHandlers.GetPolicies)
		})
	}

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	return r
}

// revokeSession extracts the session ID from the Chi URL param.
func (router *Router) revokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}
	router.authHandlers.RevokeSession(w, r, sessionID)
}

// rolePermissions extracts the role from the Chi URL param.
func (router *Router) rolePermissions(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if role == "" {
		http.Error(w, "Role required", http.StatusBadRequest)
		return
	}
	router.policyHandlers.GetRolePermissions(w, r, role)
}
