// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package auth provides authentication and session management for the
// HTTP API: JWT bearer tokens, HTTP Basic credentials, and OIDC via an
// external identity provider, selected by config.SecurityConfig.AuthMode.
//
// Authenticators implement a common interface and can be chained; the
// chain is ordered by priority so cheaper or more specific methods run
// first. Issued JWTs carry a unique token ID which is recorded in a
// JTITracker on logout, allowing stateless tokens to be revoked before
// expiry. Sessions are persisted in memory or BadgerDB and back the
// session listing and revocation endpoints. Failed logins feed a
// lockout manager with exponential backoff to slow credential stuffing.
package auth
