// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package authz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/auth"
)

func TestListRoles(t *testing.T) {
	h := NewPolicyHandlers(setupEnforcer(t))

	w := httptest.NewRecorder()
	h.ListRoles(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Roles []roleDescription `json:"roles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Roles) != 3 {
		t.Fatalf("listed %d roles, want 3", len(resp.Roles))
	}

	byName := map[string]roleDescription{}
	for _, role := range resp.Roles {
		byName[role.Name] = role
	}
	if got := byName["admin"].Inherits; len(got) != 1 || got[0] != "analyst" {
		t.Errorf("admin inherits %v, want [analyst]", got)
	}
	if got := byName["analyst"].Inherits; len(got) != 1 || got[0] != "viewer" {
		t.Errorf("analyst inherits %v, want [viewer]", got)
	}
}

func TestGetRolePermissions(t *testing.T) {
	h := NewPolicyHandlers(setupEnforcer(t))

	w := httptest.NewRecorder()
	h.GetRolePermissions(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/roles/analyst/permissions", nil), "analyst")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Role        string              `json:"role"`
		Permissions []map[string]string `json:"permissions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Role != "analyst" {
		t.Errorf("role = %q, want analyst", resp.Role)
	}

	foundTrain := false
	for _, p := range resp.Permissions {
		if p["object"] == "/api/v1/recommendations*" && p["action"] == "write" {
			foundTrain = true
		}
	}
	if !foundTrain {
		t.Errorf("analyst permissions %v missing recommendations write", resp.Permissions)
	}
}

func TestCheckPermission(t *testing.T) {
	h := NewPolicyHandlers(setupEnforcer(t))

	check := func(t *testing.T, body string, roles ...string) *httptest.ResponseRecorder {
		t.Helper()
		r := httptest.NewRequest(http.MethodPost, "/api/v1/admin/check", strings.NewReader(body))
		if len(roles) > 0 {
			subject := &auth.AuthSubject{ID: "test-user", Username: "test-user", Roles: roles}
			r = r.WithContext(context.WithValue(r.Context(), auth.AuthSubjectContextKey, subject))
		}
		w := httptest.NewRecorder()
		h.CheckPermission(w, r)
		return w
	}

	t.Run("allowed", func(t *testing.T) {
		w := check(t, `{"object":"/api/v1/datasets/stats","action":"read"}`, "viewer")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp struct {
			Allowed bool   `json:"allowed"`
			Reason  string `json:"reason"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if !resp.Allowed || resp.Reason != "" {
			t.Errorf("allowed = %v reason = %q, want true with empty reason", resp.Allowed, resp.Reason)
		}
	})

	t.Run("denied carries reason", func(t *testing.T) {
		w := check(t, `{"object":"/api/v1/recommendations/train","action":"write"}`, "viewer")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		var resp struct {
			Allowed bool   `json:"allowed"`
			Reason  string `json:"reason"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Allowed || resp.Reason == "" {
			t.Errorf("allowed = %v reason = %q, want denial with reason", resp.Allowed, resp.Reason)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := check(t, `{"object":"/x","action":"read"}`)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		w := check(t, `{"object": `, "viewer")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		w := check(t, `{}`, "viewer")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestGetPolicies(t *testing.T) {
	h := NewPolicyHandlers(setupEnforcer(t))

	w := httptest.NewRecorder()
	h.GetPolicies(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/policies", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Policies [][]string `json:"policies"`
		Groups   [][]string `json:"groups"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Policies) == 0 {
		t.Error("no policies returned")
	}
	if len(resp.Groups) < 2 {
		t.Errorf("groups = %v, want the role hierarchy", resp.Groups)
	}
}
