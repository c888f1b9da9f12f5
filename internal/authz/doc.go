// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package authz enforces role-based access control over the HTTP API
// using Casbin.
//
// Three roles cover the workbench: viewer reads datasets, analyses,
// and recommendations; analyst additionally runs analyses, trains
// models, and loads data; admin holds full control including
// destructive operations and the /api/v1/admin surface. Roles form a
// hierarchy (admin > analyst > viewer) expressed with Casbin grouping
// rules, so each role inherits everything below it.
//
// The model is the classic sub/obj/act RBAC matcher with keyMatch on
// the object so policies can cover path subtrees:
//
//	m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && r.act == p.act
//
// Both the model and the default policy are embedded, so the server
// authorizes out of the box; operators point ModelPath/PolicyPath at
// files to replace either, and file-backed policies hot-reload.
//
// Enforcement decisions are cached per (subject, object, action)
// tuple with TTL expiry. Role or policy changes invalidate the
// affected entries.
//
// Authentication runs first (internal/auth) and attaches the subject
// this package authorizes:
//
//	request -> auth.Authenticate -> authz.AuthorizeRequest -> handler
package authz
