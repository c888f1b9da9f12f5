// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// oidcStateTTL bounds how long a login redirect may stay outstanding
// before its state value expires.
const oidcStateTTL = 10 * time.Minute

// defaultOIDCScopes are requested when the config names none.
var defaultOIDCScopes = []string{"openid", "profile", "email"}

// OIDCAuthenticator validates ID tokens from an external provider and
// drives the browser login flow. Token verification (signature via
// JWKS, issuer, audience, expiry, algorithm) is delegated entirely to
// the certified zitadel/oidc library.
type OIDCAuthenticator struct {
	relyingParty rp.RelyingParty
	cfg          *config.OIDCConfig
	states       *oidcStateStore
}

// NewOIDCAuthenticator performs OIDC discovery against the configured
// issuer and builds the relying party. Discovery needs the provider to
// be reachable, so construction can fail at startup.
func NewOIDCAuthenticator(ctx context.Context, cfg *config.OIDCConfig) (*OIDCAuthenticator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("oidc config must not be nil")
	}
	if cfg.IssuerURL == "" || cfg.ClientID == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("oidc issuer url, client id and redirect url must be set")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultOIDCScopes
	}

	options := []rp.Option{
		rp.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if cfg.PKCEEnabled {
		options = append(options, rp.WithPKCE(nil))
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.IssuerURL,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.RedirectURL,
		scopes,
		options...,
	)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	logging.Info().
		Str("issuer", cfg.IssuerURL).
		Str("client_id", cfg.ClientID).
		Bool("pkce", cfg.PKCEEnabled).
		Msg("OIDC relying party initialized")

	return &OIDCAuthenticator{
		relyingParty: relyingParty,
		cfg:          cfg,
		states:       newOIDCStateStore(),
	}, nil
}

// Authenticate validates an ID token from the Authorization header or
// the configured token cookie.
func (a *OIDCAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	tokenStr := a.extractToken(r)
	if tokenStr == "" {
		return nil, ErrNoCredentials
	}

	verifier := a.relyingParty.IDTokenVerifier()
	if verifier == nil {
		return nil, fmt.Errorf("%w: verifier not initialized", ErrAuthenticatorUnavailable)
	}

	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, tokenStr, verifier)
	if err != nil {
		return nil, a.mapVerificationError(err)
	}

	return a.subjectFromClaims(claims), nil
}

// extractToken prefers the Authorization bearer header, then falls
// back to the configured cookie. JWTs from the local issuer also look
// like bearer tokens; the verifier rejects those by issuer, and in
// multi mode that rejection is terminal, so OIDC and local JWT modes
// are not chained together.
func (a *OIDCAuthenticator) extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return header[len(prefix):]
	}
	if a.cfg.CookieName != "" {
		if cookie, err := r.Cookie(a.cfg.CookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return ""
}

// mapVerificationError folds the library's string-typed verification
// failures onto the package sentinels.
func (a *OIDCAuthenticator) mapVerificationError(err error) error {
	errStr := err.Error()

	if strings.Contains(errStr, "expired") {
		return fmt.Errorf("%w: %s", ErrExpiredCredentials, errStr)
	}
	if strings.Contains(errStr, "issuer") {
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidCredentials)
	}
	if strings.Contains(errStr, "audience") {
		return fmt.Errorf("%w: audience mismatch", ErrInvalidCredentials)
	}
	logging.Debug().Err(err).Msg("ID token verification failed")
	return fmt.Errorf("%w: %s", ErrInvalidCredentials, errStr)
}

// subjectFromClaims maps provider claims onto the local subject shape.
func (a *OIDCAuthenticator) subjectFromClaims(claims *oidc.IDTokenClaims) *AuthSubject {
	subject := &AuthSubject{
		ID:            claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Issuer:        claims.Issuer,
		AuthMethod:    "oidc",
		RawClaims:     claims.Claims,
	}

	if !claims.IssuedAt.AsTime().IsZero() {
		subject.IssuedAt = claims.IssuedAt.AsTime().Unix()
	}
	if !claims.Expiration.AsTime().IsZero() {
		subject.ExpiresAt = claims.Expiration.AsTime().Unix()
	}

	switch {
	case claims.PreferredUsername != "":
		subject.Username = claims.PreferredUsername
	case claims.Name != "":
		subject.Username = claims.Name
	case claims.Email != "":
		subject.Username = claims.Email
	default:
		subject.Username = claims.Subject
	}

	rolesClaim := a.cfg.RolesClaim
	if rolesClaim == "" {
		rolesClaim = "roles"
	}
	subject.Roles = extractStringSlice(claims.Claims, rolesClaim)
	if len(subject.Roles) == 0 {
		subject.Roles = append([]string(nil), a.cfg.DefaultRoles...)
	}
	if len(subject.Roles) == 0 {
		subject.Roles = []string{"viewer"}
	}

	return subject
}

// extractStringSlice pulls a claim that providers encode as a string
// array, a JSON array of anything, or a single string.
func extractStringSlice(claims map[string]interface{}, key string) []string {
	if claims == nil || key == "" {
		return nil
	}
	switch v := claims[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// BeginLogin creates a state value and returns the provider URL to
// redirect the browser to.
func (a *OIDCAuthenticator) BeginLogin() (authURL, state string, err error) {
	state, err = a.states.New()
	if err != nil {
		return "", "", fmt.Errorf("generating login state: %w", err)
	}
	return rp.AuthURL(state, a.relyingParty), state, nil
}

// CompleteLogin validates the callback state, exchanges the code for
// tokens and returns the authenticated subject. Each state value is
// single-use.
func (a *OIDCAuthenticator) CompleteLogin(ctx context.Context, code, state string) (*AuthSubject, error) {
	if !a.states.Consume(state) {
		return nil, fmt.Errorf("%w: unknown or expired login state", ErrInvalidCredentials)
	}

	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, a.relyingParty)
	if err != nil {
		return nil, fmt.Errorf("%w: code exchange failed: %s", ErrInvalidCredentials, err)
	}
	if tokens.IDTokenClaims == nil {
		return nil, fmt.Errorf("%w: provider returned no ID token", ErrInvalidCredentials)
	}

	return a.subjectFromClaims(tokens.IDTokenClaims), nil
}

// Name implements Authenticator.
func (a *OIDCAuthenticator) Name() string { return "oidc" }

// Priority implements Authenticator. OIDC runs first; its tokens are
// the most specific credential.
func (a *OIDCAuthenticator) Priority() int { return 10 }

// oidcStateStore tracks outstanding login states in memory. Login
// redirects are short-lived, so losing them on restart only forces
// the user to click login again.
type oidcStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
}

func newOIDCStateStore() *oidcStateStore {
	return &oidcStateStore{states: make(map[string]time.Time)}
}

// New mints a random single-use state value.
func (s *oidcStateStore) New() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := hex.EncodeToString(b)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()
	s.states[state] = time.Now().Add(oidcStateTTL)
	return state, nil
}

// Consume removes and validates a state value.
func (s *oidcStateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Now().Before(expiry)
}

// prune drops expired states; called with the lock held.
func (s *oidcStateStore) prune() {
	now := time.Now()
	for state, expiry := range s.states {
		if now.After(expiry) {
			delete(s.states, state)
		}
	}
}
