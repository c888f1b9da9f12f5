// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package authz

import (
	"net/http"

	"github.com/tomtom215/lodestone/internal/auth"
	"github.com/tomtom215/lodestone/internal/logging"
)

// Middleware authorizes authenticated requests against the enforcer.
// It runs after auth.Middleware.Authenticate, which attaches the
// subject it reads.
type Middleware struct {
	enforcer *Enforcer
}

// NewMiddleware wraps an enforcer for use in the router chain.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer}
}

// AuthorizeRequest authorizes by request path, mapping the HTTP method
// to an action. Requests without a subject are enforced as the default
// role, so an unauthenticated deployment still gets read-only
// semantics if it mounts this middleware.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.authorize(w, r, r.URL.Path, methodToAction(r.Method), next)
	})
}

// Authorize enforces a fixed object and action regardless of path,
// for endpoints whose URL does not describe the protected resource.
func (m *Middleware) Authorize(object, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.authorize(w, r, object, action, next)
		})
	}
}

func (m *Middleware) authorize(w http.ResponseWriter, r *http.Request, object, action string, next http.Handler) {
	var (
		subjectID string
		roles     []string
	)
	if subject := auth.GetAuthSubject(r.Context()); subject != nil {
		subjectID = subject.ID
		roles = subject.Roles
	}

	allowed, err := m.enforcer.EnforceWithRoles(subjectID, roles, object, action)
	if err != nil {
		logging.Error().Err(err).Str("object", object).Str("action", action).
			Msg("authorization check failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if !allowed {
		logging.Debug().Str("subject", subjectID).Strs("roles", roles).
			Str("object", object).Str("action", action).
			Msg("authorization denied")
		http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	next.ServeHTTP(w, r)
}

// methodToAction maps HTTP methods onto policy actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "read"
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return "write"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}
