// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/tomtom215/lodestone/internal/config"
)

const (
	testAdminUser = "admin"
	testAdminPass = "correct-horse-battery-staple"
)

// bcrypt at cost 12 is deliberately slow, so the manager is built once
// and shared across tests.
var (
	basicManagerOnce sync.Once
	basicManager     *BasicAuthManager
	basicManagerErr  error
)

func newTestBasicManager(t *testing.T) *BasicAuthManager {
	t.Helper()
	basicManagerOnce.Do(func() {
		basicManager, basicManagerErr = NewBasicAuthManager(&config.SecurityConfig{
			AdminUsername: testAdminUser,
			AdminPassword: testAdminPass,
		})
	})
	if basicManagerErr != nil {
		t.Fatalf("NewBasicAuthManager() error = %v", basicManagerErr)
	}
	return basicManager
}

func basicHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestNewBasicAuthManager_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.SecurityConfig
	}{
		{name: "empty username", cfg: &config.SecurityConfig{AdminPassword: "x"}},
		{name: "empty password", cfg: &config.SecurityConfig{AdminUsername: "x"}},
		{name: "both empty", cfg: &config.SecurityConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBasicAuthManager(tt.cfg); err == nil {
				t.Error("NewBasicAuthManager() expected error, got nil")
			}
		})
	}
}

func TestBasicAuthManager_Verify(t *testing.T) {
	manager := newTestBasicManager(t)

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{name: "correct pair", username: testAdminUser, password: testAdminPass, want: true},
		{name: "wrong password", username: testAdminUser, password: "wrong", want: false},
		{name: "wrong username", username: "root", password: testAdminPass, want: false},
		{name: "both wrong", username: "root", password: "toor", want: false},
		{name: "empty pair", username: "", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := manager.Verify(tt.username, tt.password); got != tt.want {
				t.Errorf("Verify(%q, ...) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestBasicAuthManager_ValidateCredentials(t *testing.T) {
	manager := newTestBasicManager(t)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid", header: basicHeader(testAdminUser, testAdminPass), wantErr: nil},
		{name: "missing header", header: "", wantErr: ErrNoCredentials},
		{name: "bearer header", header: "Bearer sometoken", wantErr: ErrNoCredentials},
		{name: "bad base64", header: "Basic !!!not-base64!!!", wantErr: ErrInvalidCredentials},
		{
			name:    "no colon",
			header:  "Basic " + base64.StdEncoding.EncodeToString([]byte("adminonly")),
			wantErr: ErrInvalidCredentials,
		},
		{name: "wrong password", header: basicHeader(testAdminUser, "nope"), wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/datasets/stats", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			err := manager.ValidateCredentials(r)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCredentials() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCredentials() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBasicAuthManager_PasswordWithColon(t *testing.T) {
	manager, err := NewBasicAuthManager(&config.SecurityConfig{
		AdminUsername: "admin",
		AdminPassword: "pass:with:colons",
	})
	if err != nil {
		t.Fatalf("NewBasicAuthManager() error = %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", basicHeader("admin", "pass:with:colons"))
	if err := manager.ValidateCredentials(r); err != nil {
		t.Errorf("ValidateCredentials() error = %v, want nil", err)
	}
}

func TestBasicAuthManager_WWWAuthenticateHeader(t *testing.T) {
	manager := newTestBasicManager(t)

	header := manager.GetWWWAuthenticateHeader()
	if !strings.Contains(header, `realm="Lodestone"`) {
		t.Errorf("header %q missing realm", header)
	}
	if !strings.HasPrefix(header, "Basic ") {
		t.Errorf("header %q should start with Basic", header)
	}
}

func TestBasicAuthenticator(t *testing.T) {
	manager := newTestBasicManager(t)
	authenticator, err := NewBasicAuthenticator(manager)
	if err != nil {
		t.Fatalf("NewBasicAuthenticator() error = %v", err)
	}

	if authenticator.Name() != "basic" {
		t.Errorf("Name() = %q, want basic", authenticator.Name())
	}
	if authenticator.Priority() != 25 {
		t.Errorf("Priority() = %d, want 25", authenticator.Priority())
	}

	t.Run("valid credentials", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", basicHeader(testAdminUser, testAdminPass))

		subject, err := authenticator.Authenticate(context.Background(), r)
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if subject.Username != testAdminUser {
			t.Errorf("Username = %q, want %q", subject.Username, testAdminUser)
		}
		if !subject.HasRole("admin") {
			t.Error("basic subject should carry the admin role")
		}
		if subject.AuthMethod != "basic" {
			t.Errorf("AuthMethod = %q, want basic", subject.AuthMethod)
		}
	})

	t.Run("no credentials", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		if _, err := authenticator.Authenticate(context.Background(), r); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrNoCredentials", err)
		}
	})

	t.Run("nil manager rejected", func(t *testing.T) {
		if _, err := NewBasicAuthenticator(nil); err == nil {
			t.Error("NewBasicAuthenticator(nil) expected error")
		}
	})
}
