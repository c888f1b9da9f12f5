// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/lodestone/internal/auth"
	"github.com/tomtom215/lodestone/internal/authz"
	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// AuthComponents holds authentication and authorization wiring for the
// router. Stores must be closed on shutdown.
type AuthComponents struct {
	Middleware      *auth.Middleware
	Handlers        *auth.AuthHandlers
	Stores          *auth.Stores
	AuthzMiddleware *authz.Middleware
	PolicyHandlers  *authz.PolicyHandlers
}

// initAuth builds the full authentication and authorization stack for
// the configured mode: token or credential managers, session and
// revocation stores, login lockout, request middleware, login
// handlers, and the Casbin enforcer.
func initAuth(ctx context.Context, cfg *config.Config) (*AuthComponents, error) {
	mode, err := auth.ParseAuthMode(cfg.Security.AuthMode)
	if err != nil {
		return nil, err
	}

	var (
		jwtManager   *auth.JWTManager
		basicManager *auth.BasicAuthManager
		oidcAuth     *auth.OIDCAuthenticator
	)

	switch mode {
	case auth.AuthModeJWT:
		// The login endpoint verifies credentials before minting a
		// token, so JWT mode needs both managers.
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("jwt manager: %w", err)
		}
		basicManager, err = auth.NewBasicAuthManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("basic auth manager: %w", err)
		}
		logging.Info().Msg("JWT authentication enabled")

	case auth.AuthModeBasic:
		basicManager, err = auth.NewBasicAuthManager(&cfg.Security)
		if err != nil {
			return nil, fmt.Errorf("basic auth manager: %w", err)
		}
		logging.Info().Msg("Basic authentication enabled")
		logging.Warn().Msg("Basic Auth transmits credentials with each request. Use HTTPS in production!")

	case auth.AuthModeOIDC:
		oidcAuth, err = auth.NewOIDCAuthenticator(ctx, &cfg.Security.OIDC)
		if err != nil {
			return nil, fmt.Errorf("oidc authenticator: %w", err)
		}
		logging.Info().Str("issuer", cfg.Security.OIDC.IssuerURL).Msg("OIDC authentication enabled")

	case auth.AuthModeMulti:
		// Multi mode chains every configured method; unconfigured
		// methods are simply absent from the chain.
		if cfg.Security.JWTSecret != "" {
			jwtManager, err = auth.NewJWTManager(&cfg.Security)
			if err != nil {
				return nil, fmt.Errorf("jwt manager: %w", err)
			}
		}
		if cfg.Security.AdminUsername != "" {
			basicManager, err = auth.NewBasicAuthManager(&cfg.Security)
			if err != nil {
				return nil, fmt.Errorf("basic auth manager: %w", err)
			}
		}
		if cfg.Security.OIDC.IssuerURL != "" {
			oidcAuth, err = auth.NewOIDCAuthenticator(ctx, &cfg.Security.OIDC)
			if err != nil {
				return nil, fmt.Errorf("oidc authenticator: %w", err)
			}
		}
		logging.Info().
			Bool("jwt", jwtManager != nil).
			Bool("basic", basicManager != nil).
			Bool("oidc", oidcAuth != nil).
			Msg("Multi-method authentication enabled")

	case auth.AuthModeNone:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  All endpoints are publicly accessible without authentication!")
		logging.Warn().Msg("  This mode should ONLY be used for:")
		logging.Warn().Msg("    - Local development")
		logging.Warn().Msg("    - Completely isolated private networks")
		logging.Warn().Msg("    - CI/CD testing environments")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  NEVER use AUTH_MODE=none in production or on public networks!")
		logging.Warn().Msg("============================================================")
	}

	stores, err := auth.NewStores(&cfg.Security)
	if err != nil {
		return nil, fmt.Errorf("auth stores: %w", err)
	}

	middleware, err := auth.NewMiddleware(auth.MiddlewareConfig{
		AuthMode:          mode,
		JWTManager:        jwtManager,
		BasicAuthManager:  basicManager,
		OIDC:              oidcAuth,
		Sessions:          stores.Sessions,
		Revocations:       stores.JTIs,
		SessionLifetime:   cfg.Security.SessionTimeout,
		ReqsPerWindow:     cfg.Security.RateLimitReqs,
		Window:            cfg.Security.RateLimitWindow,
		RateLimitDisabled: cfg.Security.RateLimitDisabled,
		TrustedProxies:    cfg.Security.TrustedProxies,
	})
	if err != nil {
		closeStores(stores)
		return nil, fmt.Errorf("auth middleware: %w", err)
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
		logging.Warn().Msg("This should only be used for development and CI runs!")
	}

	var handlers *auth.AuthHandlers
	if mode != auth.AuthModeNone {
		lockout := auth.NewLockoutManager(nil, nil)
		handlers, err = auth.NewAuthHandlers(auth.AuthHandlersConfig{
			AuthMode:        mode,
			JWTManager:      jwtManager,
			BasicAuth:       basicManager,
			Sessions:        stores.Sessions,
			Revocations:     stores.JTIs,
			Lockout:         lockout,
			OIDC:            oidcAuth,
			Middleware:      middleware,
			CookieSecure:    cfg.IsProduction(),
			SessionLifetime: cfg.Security.SessionTimeout,
		})
		if err != nil {
			closeStores(stores)
			return nil, fmt.Errorf("auth handlers: %w", err)
		}
	}

	enforcerCfg := authz.DefaultEnforcerConfig()
	enforcerCfg.ModelPath = cfg.Security.Casbin.ModelPath
	enforcerCfg.PolicyPath = cfg.Security.Casbin.PolicyPath
	if cfg.Security.Casbin.DefaultRole != "" {
		enforcerCfg.DefaultRole = cfg.Security.Casbin.DefaultRole
	}
	enforcer, err := authz.NewEnforcer(enforcerCfg)
	if err != nil {
		closeStores(stores)
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	logging.Info().Str("default_role", enforcerCfg.DefaultRole).Msg("RBAC enforcer initialized")

	return &AuthComponents{
		Middleware:      middleware,
		Handlers:        handlers,
		Stores:          stores,
		AuthzMiddleware: authz.NewMiddleware(enforcer),
		PolicyHandlers:  authz.NewPolicyHandlers(enforcer),
	}, nil
}

func closeStores(stores *auth.Stores) {
	if err := stores.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing auth stores")
	}
}
