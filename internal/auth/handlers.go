// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// AuthHandlersConfig wires the login endpoints' collaborators.
type AuthHandlersConfig struct {
	AuthMode        AuthMode
	JWTManager      *JWTManager
	BasicAuth       *BasicAuthManager
	Sessions        SessionStore
	Revocations     JTITracker
	Lockout         *LockoutManager
	OIDC            *OIDCAuthenticator
	Middleware      *Middleware
	CookieSecure    bool
	SessionLifetime time.Duration
}

// AuthHandlers serves login, logout and session management endpoints.
// Route wiring stays in the api package; these handlers take plain
// ResponseWriter/Request pairs plus any extracted path parameters.
type AuthHandlers struct {
	cfg AuthHandlersConfig
}

// NewAuthHandlers validates the wiring for the configured mode.
func NewAuthHandlers(cfg AuthHandlersConfig) (*AuthHandlers, error) {
	if cfg.AuthMode == AuthModeJWT || cfg.AuthMode == AuthModeMulti {
		if cfg.JWTManager == nil || cfg.BasicAuth == nil {
			return nil, fmt.Errorf("jwt login requires jwt and basic auth managers")
		}
	}
	if cfg.SessionLifetime <= 0 {
		cfg.SessionLifetime = defaultSessionTimeout
	}
	return &AuthHandlers{cfg: cfg}, nil
}

// LoginRequest is the JSON body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}

// Login checks credentials and issues a JWT plus a session record.
// Failures feed the lockout manager; locked subjects get 429 with a
// Retry-After hint instead of another chance to guess.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	if h.cfg.JWTManager == nil || h.cfg.BasicAuth == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "login is not available in this auth mode")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSONError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx := r.Context()
	ip := h.clientIP(r)
	mode := string(h.cfg.AuthMode)

	if h.cfg.Lockout != nil {
		locked, remaining, err := h.cfg.Lockout.CheckLocked(ctx, req.Username, ip)
		if err != nil {
			logging.Error().Err(err).Msg("lockout check failed")
		} else if locked {
			metrics.RecordLoginAttempt(mode, "locked")
			writeLockoutResponse(w, remaining)
			return
		}
	}

	if !h.cfg.BasicAuth.Verify(req.Username, req.Password) {
		metrics.RecordLoginAttempt(mode, "failure")
		if h.cfg.Lockout != nil {
			locked, remaining, err := h.cfg.Lockout.RecordFailedAttempt(ctx, req.Username, ip, r.UserAgent())
			if err != nil {
				logging.Error().Err(err).Msg("recording failed login")
			} else if locked {
				writeLockoutResponse(w, remaining)
				return
			}
		}
		writeJSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if h.cfg.Lockout != nil {
		if err := h.cfg.Lockout.RecordSuccessfulLogin(ctx, req.Username, ip); err != nil {
			logging.Error().Err(err).Msg("clearing lockout state")
		}
	}

	// The single local credential is the admin credential.
	role := "admin"
	subject := &AuthSubject{
		ID:         req.Username,
		Username:   req.Username,
		Roles:      []string{role},
		Issuer:     "local",
		AuthMethod: "jwt",
	}

	sessionID := ""
	if h.cfg.Sessions != nil {
		session, err := NewSession(subject, h.cfg.SessionLifetime)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "creating session")
			return
		}
		if err := h.cfg.Sessions.Create(ctx, session); err != nil {
			logging.Error().Err(err).Msg("persisting session")
		} else {
			sessionID = session.ID
			metrics.TrackActiveSessions(1)
		}
	}

	token, err := h.cfg.JWTManager.GenerateToken(req.Username, role, sessionID)
	if err != nil {
		logging.Error().Err(err).Msg("issuing token")
		writeJSONError(w, http.StatusInternalServerError, "issuing token")
		return
	}

	expiresAt := time.Now().Add(h.cfg.JWTManager.TokenLifetime())
	http.SetCookie(w, &http.Cookie{
		Name:     tokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.RecordLoginAttempt(mode, "success")
	logging.Info().Str("username", req.Username).Str("ip", ip).Msg("login succeeded")

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		Username:  req.Username,
		Role:      role,
	})
}

// Logout revokes the presented token and deletes its session. The
// revocation outlives the process when the Badger tracker is in use.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	subject := GetAuthSubject(r.Context())
	if subject == nil {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	ctx := r.Context()

	if h.cfg.Revocations != nil && subject.TokenID != "" {
		ttl := time.Until(time.Unix(subject.ExpiresAt, 0))
		if subject.ExpiresAt == 0 || ttl <= 0 {
			ttl = h.cfg.SessionLifetime
		}
		entry := &JTIEntry{
			JTI:       subject.TokenID,
			Subject:   subject.ID,
			SessionID: subject.SessionID,
			SourceIP:  h.clientIP(r),
		}
		if err := h.cfg.Revocations.CheckAndStore(ctx, entry, ttl); err != nil && !errors.Is(err, ErrJTIAlreadyUsed) {
			logging.Error().Err(err).Msg("revoking token")
		}
	}

	if h.cfg.Sessions != nil && subject.SessionID != "" {
		if err := h.cfg.Sessions.Delete(ctx, subject.SessionID); err != nil {
			logging.Error().Err(err).Msg("deleting session")
		} else {
			metrics.TrackActiveSessions(-1)
		}
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// LogoutAll deletes every session of the current user. Outstanding
// JWTs from other logins stay valid until they expire; only their
// session records are removed.
func (h *AuthHandlers) LogoutAll(w http.ResponseWriter, r *http.Request) {
	subject := GetAuthSubject(r.Context())
	if subject == nil {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.cfg.Sessions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}

	count, err := h.cfg.Sessions.DeleteByUserID(r.Context(), subject.ID)
	if err != nil {
		logging.Error().Err(err).Msg("deleting sessions")
		writeJSONError(w, http.StatusInternalServerError, "deleting sessions")
		return
	}
	metrics.TrackActiveSessions(-count)

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":          "logged out everywhere",
		"sessions_revoked": count,
	})
}

// UserInfo returns the authenticated subject, or an anonymous stub
// when authentication is disabled.
func (h *AuthHandlers) UserInfo(w http.ResponseWriter, r *http.Request) {
	subject := GetAuthSubject(r.Context())
	if subject == nil {
		if h.cfg.AuthMode == AuthModeNone {
			writeJSON(w, http.StatusOK, &AuthSubject{
				ID:         "anonymous",
				Username:   "anonymous",
				Roles:      []string{"admin"},
				Issuer:     "none",
				AuthMethod: "none",
			})
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, subject)
}

// sessionInfo augments a session with whether it is the caller's own.
type sessionInfo struct {
	*Session
	Current bool `json:"current"`
}

// Sessions lists the caller's live sessions.
func (h *AuthHandlers) Sessions(w http.ResponseWriter, r *http.Request) {
	subject := GetAuthSubject(r.Context())
	if subject == nil {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.cfg.Sessions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}

	sessions, err := h.cfg.Sessions.GetByUserID(r.Context(), subject.ID)
	if err != nil {
		logging.Error().Err(err).Msg("listing sessions")
		writeJSONError(w, http.StatusInternalServerError, "listing sessions")
		return
	}

	out := make([]sessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionInfo{Session: s, Current: s.ID == subject.SessionID})
	}
	writeJSON(w, http.StatusOK, out)
}

// RevokeSession deletes one session by ID. Users may revoke their own
// sessions; admins may revoke anyone's.
func (h *AuthHandlers) RevokeSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	subject := GetAuthSubject(r.Context())
	if subject == nil {
		writeJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if h.cfg.Sessions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}

	session, err := h.cfg.Sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "session not found")
		return
	}

	if session.UserID != subject.ID && !subject.HasRole("admin") {
		writeJSONError(w, http.StatusForbidden, "cannot revoke another user's session")
		return
	}

	if err := h.cfg.Sessions.Delete(r.Context(), sessionID); err != nil {
		logging.Error().Err(err).Str("session_id", sessionID).Msg("deleting session")
		writeJSONError(w, http.StatusInternalServerError, "deleting session")
		return
	}
	metrics.TrackActiveSessions(-1)

	writeJSON(w, http.StatusOK, map[string]string{"message": "session revoked"})
}

// OIDCLogin redirects the browser to the identity provider.
func (h *AuthHandlers) OIDCLogin(w http.ResponseWriter, r *http.Request) {
	if h.cfg.OIDC == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "oidc is not configured")
		return
	}

	authURL, _, err := h.cfg.OIDC.BeginLogin()
	if err != nil {
		logging.Error().Err(err).Msg("starting oidc login")
		writeJSONError(w, http.StatusInternalServerError, "starting login")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// OIDCCallback completes the provider flow: exchange the code, create
// a session and hand the browser a session cookie.
func (h *AuthHandlers) OIDCCallback(w http.ResponseWriter, r *http.Request) {
	if h.cfg.OIDC == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "oidc is not configured")
		return
	}

	query := r.URL.Query()
	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		writeJSONError(w, http.StatusBadRequest, "missing code or state")
		return
	}

	subject, err := h.cfg.OIDC.CompleteLogin(r.Context(), code, state)
	if err != nil {
		metrics.RecordLoginAttempt("oidc", "failure")
		logging.Warn().Err(err).Msg("oidc login failed")
		writeJSONError(w, http.StatusUnauthorized, "login failed")
		return
	}

	if h.cfg.Sessions == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "session store not configured")
		return
	}

	session, err := NewSession(subject, h.cfg.SessionLifetime)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "creating session")
		return
	}
	if err := h.cfg.Sessions.Create(r.Context(), session); err != nil {
		logging.Error().Err(err).Msg("persisting session")
		writeJSONError(w, http.StatusInternalServerError, "creating session")
		return
	}
	metrics.TrackActiveSessions(1)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	metrics.RecordLoginAttempt("oidc", "success")
	logging.Info().Str("username", subject.Username).Str("issuer", subject.Issuer).Msg("oidc login succeeded")
	http.Redirect(w, r, "/", http.StatusFound)
}

// clientIP prefers the middleware's proxy-aware resolution.
func (h *AuthHandlers) clientIP(r *http.Request) string {
	if h.cfg.Middleware != nil {
		return h.cfg.Middleware.ClientIP(r)
	}
	return remoteAddrIP(r.RemoteAddr)
}

// clearAuthCookies expires both credential cookies.
func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{tokenCookieName, sessionCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encoding auth response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
