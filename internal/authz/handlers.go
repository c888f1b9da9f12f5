// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package authz

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/auth"
	"github.com/tomtom215/lodestone/internal/logging"
)

// PolicyHandlers exposes read-only policy introspection under the
// admin API. Role grants ride tokens (local login is admin, OIDC
// claims carry roles), so there is no role-assignment endpoint.
type PolicyHandlers struct {
	enforcer *Enforcer
}

// NewPolicyHandlers wraps an enforcer for the admin routes.
func NewPolicyHandlers(enforcer *Enforcer) *PolicyHandlers {
	return &PolicyHandlers{enforcer: enforcer}
}

// roleDescription documents one built-in role for ListRoles.
type roleDescription struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Inherits    []string `json:"inherits"`
}

// ListRoles returns the built-in role hierarchy.
// GET /api/v1/admin/roles
func (h *PolicyHandlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles := []roleDescription{
		{
			Name:        "viewer",
			Description: "Read-only access to datasets, analyses, and recommendations",
			Inherits:    []string{},
		},
		{
			Name:        "analyst",
			Description: "Runs analyses, trains models, and loads data",
			Inherits:    []string{"viewer"},
		},
		{
			Name:        "admin",
			Description: "Full access including destructive operations",
			Inherits:    []string{"analyst"},
		},
	}
	h.encode(w, map[string]interface{}{"roles": roles})
}

// GetRolePermissions returns the policy rules granted to one role.
// GET /api/v1/admin/roles/{role}/permissions
func (h *PolicyHandlers) GetRolePermissions(w http.ResponseWriter, r *http.Request, role string) {
	policies := h.enforcer.GetFilteredPolicy(0, role)

	permissions := make([]map[string]string, 0, len(policies))
	for _, policy := range policies {
		if len(policy) >= 3 {
			permissions = append(permissions, map[string]string{
				"object": policy[1],
				"action": policy[2],
			})
		}
	}
	h.encode(w, map[string]interface{}{"role": role, "permissions": permissions})
}

// CheckPermission evaluates an object/action pair for the caller.
// POST /api/v1/admin/check
func (h *PolicyHandlers) CheckPermission(w http.ResponseWriter, r *http.Request) {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		http.Error(w, "Unauthorized: not authenticated", http.StatusUnauthorized)
		return
	}

	var req struct {
		Object string `json:"object"`
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Object == "" || req.Action == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	allowed, err := h.enforcer.EnforceWithRoles(subject.ID, subject.Roles, req.Object, req.Action)
	if err != nil {
		logging.Error().Err(err).Msg("permission check failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	reason := ""
	if !allowed {
		reason = "insufficient permissions"
	}
	h.encode(w, map[string]interface{}{"allowed": allowed, "reason": reason})
}

// GetPolicies dumps the live policy and grouping rules.
// GET /api/v1/admin/policies
func (h *PolicyHandlers) GetPolicies(w http.ResponseWriter, r *http.Request) {
	h.encode(w, map[string]interface{}{
		"policies": h.enforcer.GetPolicy(),
		"groups":   h.enforcer.GetGroupingPolicy(),
	})
}

func (h *PolicyHandlers) encode(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("encoding policy response")
	}
}
