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
)

// AuthMode identifies the authentication method configured for the API.
type AuthMode string

const (
	// AuthModeNone disables authentication entirely. Every request is
	// treated as anonymous; intended for local single-user workbenches.
	AuthModeNone AuthMode = "none"

	// AuthModeBasic authenticates with HTTP Basic credentials checked
	// against the configured admin username and bcrypt password hash.
	AuthModeBasic AuthMode = "basic"

	// AuthModeJWT authenticates with bearer tokens issued by the login
	// endpoint and signed with the configured HMAC secret.
	AuthModeJWT AuthMode = "jwt"

	// AuthModeOIDC authenticates with ID tokens from an external OIDC
	// provider, plus server-side sessions for browser flows.
	AuthModeOIDC AuthMode = "oidc"

	// AuthModeMulti tries every configured authenticator in priority
	// order until one succeeds.
	AuthModeMulti AuthMode = "multi"
)

// ParseAuthMode validates a configured mode string. An empty string
// defaults to AuthModeJWT so that a secret-only config is usable.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(s) {
	case AuthModeNone, AuthModeBasic, AuthModeJWT, AuthModeOIDC, AuthModeMulti:
		return AuthMode(s), nil
	case "":
		return AuthModeJWT, nil
	default:
		return "", fmt.Errorf("unknown auth mode %q", s)
	}
}

// Sentinel errors returned by Authenticator implementations. The
// middleware maps these onto HTTP status codes, and the multi
// authenticator uses them to decide whether to try the next method.
var (
	// ErrNoCredentials indicates the request carried no credentials
	// recognized by the authenticator. The next authenticator in a
	// chain may still succeed.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrInvalidCredentials indicates credentials were present but
	// failed validation. This is terminal; no fallback is attempted.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrExpiredCredentials indicates credentials were valid once but
	// have expired or been revoked.
	ErrExpiredCredentials = errors.New("expired credentials")

	// ErrAuthenticatorUnavailable indicates the authenticator cannot
	// currently validate anything, for example an unreachable identity
	// provider. The chain may try the next method.
	ErrAuthenticatorUnavailable = errors.New("authenticator unavailable")
)

// Authenticator validates the credentials on an HTTP request and
// resolves them to an AuthSubject.
type Authenticator interface {
	// Authenticate inspects the request and returns the authenticated
	// subject, or one of the sentinel errors above.
	Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error)

	// Name returns a short identifier used in logs and metrics.
	Name() string

	// Priority orders authenticators in a chain; lower runs first.
	Priority() int
}

// AuthSubject is the provider-independent identity attached to the
// request context after successful authentication.
type AuthSubject struct {
	// ID is the stable unique identifier: the username for local
	// credentials, the token subject for OIDC.
	ID string `json:"id"`

	// Username is the human-readable login name.
	Username string `json:"username"`

	// Email is the subject's email address, when the provider supplies one.
	Email string `json:"email,omitempty"`

	// EmailVerified reports whether the provider verified the address.
	EmailVerified bool `json:"email_verified,omitempty"`

	// Roles carries the authorization roles (admin, analyst, viewer).
	Roles []string `json:"roles"`

	// Groups carries provider group memberships, OIDC only.
	Groups []string `json:"groups,omitempty"`

	// Issuer identifies who vouched for the subject: "local" for
	// built-in credentials, the issuer URL for OIDC.
	Issuer string `json:"issuer"`

	// AuthMethod records which authenticator produced this subject.
	AuthMethod string `json:"auth_method"`

	// IssuedAt and ExpiresAt are Unix seconds; zero means unknown or
	// non-expiring.
	IssuedAt  int64 `json:"issued_at,omitempty"`
	ExpiresAt int64 `json:"expires_at,omitempty"`

	// TokenID is the unique ID of the bearer token that produced this
	// subject, used for revocation on logout. Empty for Basic.
	TokenID string `json:"-"`

	// SessionID links the subject to a server-side session record.
	SessionID string `json:"session_id,omitempty"`

	// RawClaims preserves the full provider claim set for diagnostics.
	// Never serialized to clients.
	RawClaims map[string]interface{} `json:"-"`
}

// HasRole reports whether the subject carries the exact role.
func (s *AuthSubject) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the subject carries at least one of roles.
func (s *AuthSubject) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if s.HasRole(role) {
			return true
		}
	}
	return false
}

// IsExpired reports whether the subject's credential lifetime has passed.
// Subjects without an expiry never expire.
func (s *AuthSubject) IsExpired() bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() >= s.ExpiresAt
}

// PrimaryRole returns the first role, or "viewer" when none are set.
// Used where a single role string is needed, such as JWT claims.
func (s *AuthSubject) PrimaryRole() string {
	if len(s.Roles) > 0 {
		return s.Roles[0]
	}
	return "viewer"
}

// AuthSubjectFromClaims builds a subject from validated JWT claims.
func AuthSubjectFromClaims(claims *Claims) *AuthSubject {
	subject := &AuthSubject{
		ID:         claims.Username,
		Username:   claims.Username,
		Roles:      []string{claims.Role},
		Issuer:     "local",
		AuthMethod: "jwt",
		TokenID:    claims.ID,
		SessionID:  claims.SessionID,
	}
	if claims.IssuedAt != nil {
		subject.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		subject.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return subject
}

// ToClaims converts the subject back to JWT claims for compatibility
// with handlers that predate AuthSubject.
func (s *AuthSubject) ToClaims() *Claims {
	return &Claims{
		Username:  s.Username,
		Role:      s.PrimaryRole(),
		SessionID: s.SessionID,
	}
}
