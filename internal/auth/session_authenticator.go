// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
)

// sessionCookieName carries the server-side session ID for browser
// logins, set by the OIDC callback.
const sessionCookieName = "session"

// slidingWindowFraction controls when a session's expiry is extended:
// once less than this fraction of the lifetime remains. Touching on
// every request would turn each read into a write.
const slidingWindowFraction = 0.5

// SessionAuthenticator resolves the session cookie against the session
// store. Active sessions slide their expiry forward so a browser in
// daily use stays logged in.
type SessionAuthenticator struct {
	store    SessionStore
	lifetime time.Duration
}

// NewSessionAuthenticator wires the store; lifetime is the sliding
// window applied on touch.
func NewSessionAuthenticator(store SessionStore, lifetime time.Duration) (*SessionAuthenticator, error) {
	if store == nil {
		return nil, fmt.Errorf("session store must not be nil")
	}
	if lifetime <= 0 {
		lifetime = defaultSessionTimeout
	}
	return &SessionAuthenticator{store: store, lifetime: lifetime}, nil
}

// Authenticate implements Authenticator.
func (a *SessionAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoCredentials
	}

	session, err := a.store.Get(ctx, cookie.Value)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return nil, fmt.Errorf("%w: unknown session", ErrInvalidCredentials)
	case errors.Is(err, ErrSessionExpired):
		return nil, fmt.Errorf("%w: session expired", ErrExpiredCredentials)
	case err != nil:
		return nil, fmt.Errorf("%w: session lookup failed", ErrAuthenticatorUnavailable)
	}

	a.maybeTouch(ctx, session)
	return session.ToAuthSubject(), nil
}

// maybeTouch extends the session when most of its lifetime is spent.
// Failures are logged and ignored; the current request already passed.
func (a *SessionAuthenticator) maybeTouch(ctx context.Context, session *Session) {
	remaining := time.Until(session.ExpiresAt)
	if remaining > time.Duration(float64(a.lifetime)*slidingWindowFraction) {
		return
	}
	if err := a.store.Touch(ctx, session.ID, time.Now().Add(a.lifetime)); err != nil {
		logging.Debug().Err(err).Str("session_id", session.ID).Msg("session touch failed")
	}
}

// Name implements Authenticator.
func (a *SessionAuthenticator) Name() string { return "session" }

// Priority implements Authenticator. Sessions run after OIDC bearer
// tokens and before JWT.
func (a *SessionAuthenticator) Priority() int { return 15 }
