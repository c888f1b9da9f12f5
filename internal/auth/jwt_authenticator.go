// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// tokenCookieName is where the login handler mirrors issued JWTs so
// browser clients authenticate without custom headers.
const tokenCookieName = "token"

// JWTAuthenticator adapts JWTManager to the Authenticator interface.
// When a revocation tracker is attached, tokens revoked at logout are
// rejected even though their signature still verifies.
type JWTAuthenticator struct {
	manager     *JWTManager
	revocations JTITracker
}

// NewJWTAuthenticator wires the manager and an optional revocation
// tracker; pass nil to skip revocation checks.
func NewJWTAuthenticator(manager *JWTManager, revocations JTITracker) (*JWTAuthenticator, error) {
	if manager == nil {
		return nil, fmt.Errorf("jwt manager must not be nil")
	}
	return &JWTAuthenticator{manager: manager, revocations: revocations}, nil
}

// Authenticate validates a bearer token from the Authorization header
// or the token cookie.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	tokenString := a.extractToken(r)
	if tokenString == "" {
		return nil, ErrNoCredentials
	}

	claims, err := a.manager.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	if a.revocations != nil && claims.ID != "" {
		used, err := a.revocations.IsUsed(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: revocation check failed", ErrAuthenticatorUnavailable)
		}
		if used {
			return nil, fmt.Errorf("%w: token revoked", ErrExpiredCredentials)
		}
	}

	return AuthSubjectFromClaims(claims), nil
}

func (a *JWTAuthenticator) extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		const prefix = "Bearer "
		if strings.HasPrefix(header, prefix) {
			return header[len(prefix):]
		}
		return ""
	}
	if cookie, err := r.Cookie(tokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// Name implements Authenticator.
func (a *JWTAuthenticator) Name() string { return "jwt" }

// Priority implements Authenticator. JWT runs after OIDC and sessions
// but before Basic.
func (a *JWTAuthenticator) Priority() int { return 20 }
