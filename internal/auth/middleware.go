// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

type contextKey string

// Context keys for the authenticated identity.
const (
	AuthSubjectContextKey contextKey = "auth_subject"
	ClaimsContextKey      contextKey = "claims"
)

// GetAuthSubject returns the authenticated subject from the request
// context, or nil when the request is anonymous.
func GetAuthSubject(ctx context.Context) *AuthSubject {
	subject, _ := ctx.Value(AuthSubjectContextKey).(*AuthSubject)
	return subject
}

// GetClaims returns the JWT-shaped claims from the request context.
func GetClaims(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsContextKey).(*Claims)
	return claims
}

// MiddlewareConfig wires the middleware's collaborators. Only the
// pieces the configured mode needs have to be non-nil.
type MiddlewareConfig struct {
	AuthMode         AuthMode
	JWTManager       *JWTManager
	BasicAuthManager *BasicAuthManager
	OIDC             *OIDCAuthenticator
	Sessions         SessionStore
	Revocations      JTITracker
	SessionLifetime  time.Duration

	ReqsPerWindow     int
	Window            time.Duration
	RateLimitDisabled bool
	TrustedProxies    []string
}

// Middleware enforces authentication, role checks, per-IP rate limits
// and baseline security headers on API routes.
type Middleware struct {
	authenticator     Authenticator
	authMode          AuthMode
	basicAuthManager  *BasicAuthManager
	rateLimiter       *RateLimiter
	rateLimitDisabled bool
	trustedProxies    map[string]bool
}

// NewMiddleware builds the authenticator chain for the configured mode
// and starts the rate limiter's cleanup loop.
func NewMiddleware(cfg MiddlewareConfig) (*Middleware, error) {
	authenticator, err := buildAuthenticator(cfg)
	if err != nil {
		return nil, err
	}

	trustedMap := make(map[string]bool, len(cfg.TrustedProxies))
	for _, proxy := range cfg.TrustedProxies {
		trustedMap[proxy] = true
	}

	m := &Middleware{
		authenticator:     authenticator,
		authMode:          cfg.AuthMode,
		basicAuthManager:  cfg.BasicAuthManager,
		rateLimiter:       NewRateLimiter(cfg.ReqsPerWindow, cfg.Window),
		rateLimitDisabled: cfg.RateLimitDisabled,
		trustedProxies:    trustedMap,
	}

	if !cfg.RateLimitDisabled {
		go m.rateLimiter.startCleanup(5 * time.Minute)
	}

	return m, nil
}

// buildAuthenticator assembles the chain for the configured mode.
func buildAuthenticator(cfg MiddlewareConfig) (Authenticator, error) {
	switch cfg.AuthMode {
	case AuthModeNone:
		logging.Warn().Msg("authentication is DISABLED; every request is anonymous with full access")
		return nil, nil

	case AuthModeJWT:
		if cfg.JWTManager == nil {
			return nil, fmt.Errorf("jwt mode requires a jwt manager")
		}
		return NewJWTAuthenticator(cfg.JWTManager, cfg.Revocations)

	case AuthModeBasic:
		if cfg.BasicAuthManager == nil {
			return nil, fmt.Errorf("basic mode requires a basic auth manager")
		}
		return NewBasicAuthenticator(cfg.BasicAuthManager)

	case AuthModeOIDC:
		if cfg.OIDC == nil {
			return nil, fmt.Errorf("oidc mode requires an oidc authenticator")
		}
		if cfg.Sessions != nil {
			sessions, err := NewSessionAuthenticator(cfg.Sessions, cfg.SessionLifetime)
			if err != nil {
				return nil, err
			}
			return NewMultiAuthenticator(cfg.OIDC, sessions)
		}
		return cfg.OIDC, nil

	case AuthModeMulti:
		var chain []Authenticator
		if cfg.OIDC != nil {
			chain = append(chain, cfg.OIDC)
		}
		if cfg.Sessions != nil {
			sessions, err := NewSessionAuthenticator(cfg.Sessions, cfg.SessionLifetime)
			if err != nil {
				return nil, err
			}
			chain = append(chain, sessions)
		}
		if cfg.JWTManager != nil {
			jwtAuth, err := NewJWTAuthenticator(cfg.JWTManager, cfg.Revocations)
			if err != nil {
				return nil, err
			}
			chain = append(chain, jwtAuth)
		}
		if cfg.BasicAuthManager != nil {
			basicAuth, err := NewBasicAuthenticator(cfg.BasicAuthManager)
			if err != nil {
				return nil, err
			}
			chain = append(chain, basicAuth)
		}
		return NewMultiAuthenticator(chain...)

	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// Mode returns the configured auth mode.
func (m *Middleware) Mode() AuthMode {
	return m.authMode
}

// Authenticate validates request credentials and attaches the subject
// to the context. Mode none passes everything through untouched.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authenticator == nil {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := m.authenticator.Authenticate(r.Context(), r)
		if err != nil {
			metrics.RecordAuthRequest(m.authenticator.Name(), "failure")
			m.handleAuthError(w, err)
			return
		}

		metrics.RecordAuthRequest(subject.AuthMethod, "success")

		ctx := context.WithValue(r.Context(), AuthSubjectContextKey, subject)
		ctx = context.WithValue(ctx, ClaimsContextKey, subject.ToClaims())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// handleAuthError maps authentication failures onto HTTP statuses.
func (m *Middleware) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoCredentials):
		if m.authMode == AuthModeBasic && m.basicAuthManager != nil {
			w.Header().Set("WWW-Authenticate", m.basicAuthManager.GetWWWAuthenticateHeader())
		}
		http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)

	case errors.Is(err, ErrExpiredCredentials):
		http.Error(w, "Unauthorized: credentials expired", http.StatusUnauthorized)

	case errors.Is(err, ErrAuthenticatorUnavailable):
		http.Error(w, "Service Unavailable: authentication backend unavailable", http.StatusServiceUnavailable)

	default:
		if m.authMode == AuthModeBasic && m.basicAuthManager != nil {
			w.Header().Set("WWW-Authenticate", m.basicAuthManager.GetWWWAuthenticateHeader())
		}
		http.Error(w, "Unauthorized: invalid credentials", http.StatusUnauthorized)
	}
}

// RequireRole gates a route on a role. Admin passes every check; mode
// none passes everything.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return m.RequireAnyRole(role)
}

// RequireAnyRole gates a route on at least one of the given roles.
func (m *Middleware) RequireAnyRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.authenticator == nil {
				next.ServeHTTP(w, r)
				return
			}

			subject := GetAuthSubject(r.Context())
			if subject == nil {
				http.Error(w, "Unauthorized: authentication required", http.StatusUnauthorized)
				return
			}

			if subject.HasRole("admin") || subject.HasAnyRole(roles...) {
				next.ServeHTTP(w, r)
				return
			}

			logging.Debug().
				Str("username", subject.Username).
				Strs("roles", subject.Roles).
				Strs("required", roles).
				Msg("role check failed")
			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}

// RateLimit rejects clients that exceed the per-IP request budget.
func (m *Middleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitDisabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := m.ClientIP(r)
		if !m.rateLimiter.Allow(ip) {
			metrics.RecordAuthRateLimited()
			logging.Debug().Str("ip", ip).Msg("request rate limited")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets baseline hardening headers on every response.
// The CSP allows websocket connections back to the origin for the live
// update stream.
func (m *Middleware) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; connect-src 'self' ws: wss:; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// ClientIP resolves the client address, honoring forwarding headers
// only when the direct peer is a trusted proxy.
func (m *Middleware) ClientIP(r *http.Request) string {
	remoteIP := remoteAddrIP(r.RemoteAddr)

	if !m.trustedProxies[remoteIP] {
		return remoteIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client.
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if net.ParseIP(realIP) != nil {
			return realIP
		}
	}
	return remoteIP
}

// remoteAddrIP strips the port from a RemoteAddr, handling bracketed
// IPv6 literals.
func remoteAddrIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// Stop halts the rate limiter's background cleanup.
func (m *Middleware) Stop() {
	if !m.rateLimitDisabled {
		m.rateLimiter.Stop()
	}
}

// RateLimiter applies a token bucket per client IP. The bucket refills
// one request per window with a burst of the full window budget, and
// idle buckets are dropped after an hour.
type RateLimiter struct {
	limiters  map[string]*rateLimiterEntry
	mu        sync.Mutex
	rate      rate.Limit
	burst     int
	stopClean chan struct{}
}

type rateLimiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter allows reqsPerWindow requests per window per IP.
func NewRateLimiter(reqsPerWindow int, window time.Duration) *RateLimiter {
	if reqsPerWindow <= 0 {
		reqsPerWindow = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limiters:  make(map[string]*rateLimiterEntry),
		rate:      rate.Every(window / time.Duration(reqsPerWindow)),
		burst:     reqsPerWindow,
		stopClean: make(chan struct{}),
	}
}

// Allow reports whether a request from ip fits the budget.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	entry, exists := rl.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:    rate.NewLimiter(rl.rate, rl.burst),
			lastAccess: time.Now(),
		}
		rl.limiters[ip] = entry
	} else {
		entry.lastAccess = time.Now()
	}
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.Allow()
}

// startCleanup periodically drops idle per-IP buckets.
func (rl *RateLimiter) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopClean:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	threshold := time.Now().Add(-time.Hour)
	for ip, entry := range rl.limiters {
		if entry.lastAccess.Before(threshold) {
			delete(rl.limiters, ip)
		}
	}
}

// Stop halts the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopClean)
}
