// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

/*
rbac.go - Role-Based Access Control Models

Role Hierarchy:
  - viewer: Default role, read-only access to analyses and recommendations
  - analyst: Can run analyses, train models, ingest datasets (inherits viewer)
  - admin: Full access including user management and scraping (inherits analyst)

Usage:
  - Authorization service in internal/authz
  - API authorization in internal/api handlers
*/

package models

import (
	"time"
)

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz.
const (
	// RoleViewer is the default role with read-only access.
	RoleViewer = "viewer"

	// RoleAnalyst can run analyses and train models, inherits viewer permissions.
	RoleAnalyst = "analyst"

	// RoleAdmin has full access including user management and inherits analyst permissions.
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleAnalyst, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// UserRole represents a user's role assignment in the system.
// Roles are persistent and stored in the database for lookup during
// authorization.
type UserRole struct {
	ID        int64      `json:"id"`
	UserID    string     `json:"user_id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	GrantedBy string     `json:"granted_by,omitempty"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	IsActive  bool       `json:"is_active"`
}

// Expired reports whether a time-limited role assignment has lapsed.
func (u UserRole) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && now.After(*u.ExpiresAt)
}
