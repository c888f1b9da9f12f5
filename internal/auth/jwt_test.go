// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

//nolint:gochecknoinits
func init() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: io.Discard})
}

const testJWTSecret = "this_is_a_very_long_secret_key_with_32_plus_characters"

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      testJWTSecret,
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return manager
}

func TestNewJWTManager(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.SecurityConfig
		wantErr bool
	}{
		{
			name: "valid secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      testJWTSecret,
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: false,
		},
		{
			name: "empty secret",
			cfg: &config.SecurityConfig{
				JWTSecret:      "",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: true,
		},
		{
			name: "short secret accepted with warning",
			cfg: &config.SecurityConfig{
				JWTSecret:      "short",
				SessionTimeout: 24 * time.Hour,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewJWTManager(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("NewJWTManager() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("NewJWTManager() unexpected error = %v", err)
				return
			}
			if manager == nil {
				t.Error("NewJWTManager() returned nil manager")
			}
		})
	}
}

func TestJWTManager_DefaultTimeout(t *testing.T) {
	manager, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testJWTSecret})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	if manager.TokenLifetime() != defaultSessionTimeout {
		t.Errorf("TokenLifetime() = %v, want %v", manager.TokenLifetime(), defaultSessionTimeout)
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := newTestJWTManager(t)

	tests := []struct {
		name      string
		username  string
		role      string
		sessionID string
	}{
		{name: "admin with session", username: "admin", role: "admin", sessionID: "sess-1"},
		{name: "viewer without session", username: "alice", role: "viewer", sessionID: ""},
		{name: "analyst", username: "bob", role: "analyst", sessionID: "sess-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := manager.GenerateToken(tt.username, tt.role, tt.sessionID)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}
			if token == "" {
				t.Fatal("GenerateToken() returned empty token")
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if claims.Username != tt.username {
				t.Errorf("Username = %q, want %q", claims.Username, tt.username)
			}
			if claims.Role != tt.role {
				t.Errorf("Role = %q, want %q", claims.Role, tt.role)
			}
			if claims.SessionID != tt.sessionID {
				t.Errorf("SessionID = %q, want %q", claims.SessionID, tt.sessionID)
			}
			if claims.ID == "" {
				t.Error("token ID (jti) should be set")
			}
			if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
				t.Error("token should expire in the future")
			}
		})
	}
}

func TestGenerateToken_UniqueIDs(t *testing.T) {
	manager := newTestJWTManager(t)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, err := manager.GenerateToken("admin", "admin", "")
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		claims, err := manager.ValidateToken(token)
		if err != nil {
			t.Fatalf("ValidateToken() error = %v", err)
		}
		if seen[claims.ID] {
			t.Fatalf("token ID %q repeated", claims.ID)
		}
		seen[claims.ID] = true
	}
}

func TestValidateToken_Failures(t *testing.T) {
	manager := newTestJWTManager(t)

	otherManager, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "a_completely_different_secret_with_32_plus_characters",
		SessionTimeout: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	foreignToken, err := otherManager.GenerateToken("admin", "admin", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	// A manager with a negative lifetime issues already expired tokens.
	expiredManager := &JWTManager{secret: []byte(testJWTSecret), timeout: -time.Hour}
	expiredToken, err := expiredManager.GenerateToken("admin", "admin", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin", Role: "admin"})
	unsigned, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing unsigned token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not.a.token"},
		{name: "empty", token: ""},
		{name: "wrong secret", token: foreignToken},
		{name: "expired", token: expiredToken},
		{name: "alg none", token: unsigned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := manager.ValidateToken(tt.token); err == nil {
				t.Error("ValidateToken() expected error, got nil")
			}
		})
	}
}

func TestValidateToken_TamperedPayload(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateToken("alice", "viewer", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts, want 3", len(parts))
	}

	// Swapping the payload invalidates the signature.
	other, err := manager.GenerateToken("mallory", "admin", "")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	otherParts := strings.Split(other, ".")
	tampered := parts[0] + "." + otherParts[1] + "." + parts[2]

	if _, err := manager.ValidateToken(tampered); err == nil {
		t.Error("ValidateToken() accepted a tampered token")
	}
}

func TestAuthSubjectFromClaims(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateToken("alice", "analyst", "sess-9")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}

	subject := AuthSubjectFromClaims(claims)
	if subject.ID != "alice" || subject.Username != "alice" {
		t.Errorf("subject identity = %q/%q, want alice", subject.ID, subject.Username)
	}
	if !subject.HasRole("analyst") {
		t.Error("subject should carry the analyst role")
	}
	if subject.TokenID != claims.ID {
		t.Errorf("TokenID = %q, want %q", subject.TokenID, claims.ID)
	}
	if subject.SessionID != "sess-9" {
		t.Errorf("SessionID = %q, want sess-9", subject.SessionID)
	}
	if subject.Issuer != "local" || subject.AuthMethod != "jwt" {
		t.Errorf("issuer/method = %q/%q, want local/jwt", subject.Issuer, subject.AuthMethod)
	}
	if subject.IsExpired() {
		t.Error("fresh subject should not be expired")
	}
}

func TestAuthSubject_Roles(t *testing.T) {
	subject := &AuthSubject{Roles: []string{"analyst", "viewer"}}

	if !subject.HasRole("analyst") {
		t.Error("HasRole(analyst) = false, want true")
	}
	if subject.HasRole("admin") {
		t.Error("HasRole(admin) = true, want false")
	}
	if !subject.HasAnyRole("admin", "viewer") {
		t.Error("HasAnyRole(admin, viewer) = false, want true")
	}
	if subject.HasAnyRole("admin", "operator") {
		t.Error("HasAnyRole(admin, operator) = true, want false")
	}
	if subject.PrimaryRole() != "analyst" {
		t.Errorf("PrimaryRole() = %q, want analyst", subject.PrimaryRole())
	}

	empty := &AuthSubject{}
	if empty.PrimaryRole() != "viewer" {
		t.Errorf("PrimaryRole() on empty subject = %q, want viewer", empty.PrimaryRole())
	}
}

func TestParseAuthMode(t *testing.T) {
	tests := []struct {
		input   string
		want    AuthMode
		wantErr bool
	}{
		{input: "none", want: AuthModeNone},
		{input: "basic", want: AuthModeBasic},
		{input: "jwt", want: AuthModeJWT},
		{input: "oidc", want: AuthModeOIDC},
		{input: "multi", want: AuthModeMulti},
		{input: "", want: AuthModeJWT},
		{input: "plex", wantErr: true},
		{input: "JWT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("mode "+tt.input, func(t *testing.T) {
			got, err := ParseAuthMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAuthMode(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseAuthMode(%q) error = %v", tt.input, err)
				return
			}
			if got != tt.want {
				t.Errorf("ParseAuthMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
