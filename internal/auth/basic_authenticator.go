// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"fmt"
	"net/http"
)

// BasicAuthenticator adapts BasicAuthManager to the Authenticator
// interface. Basic credentials always map to the admin role since only
// the admin credential pair exists.
type BasicAuthenticator struct {
	manager *BasicAuthManager
}

// NewBasicAuthenticator wires the credential manager.
func NewBasicAuthenticator(manager *BasicAuthManager) (*BasicAuthenticator, error) {
	if manager == nil {
		return nil, fmt.Errorf("basic auth manager must not be nil")
	}
	return &BasicAuthenticator{manager: manager}, nil
}

// Authenticate validates the Authorization header as HTTP Basic.
func (a *BasicAuthenticator) Authenticate(_ context.Context, r *http.Request) (*AuthSubject, error) {
	if err := a.manager.ValidateCredentials(r); err != nil {
		return nil, err
	}
	return &AuthSubject{
		ID:         a.manager.Username(),
		Username:   a.manager.Username(),
		Roles:      []string{"admin"},
		Issuer:     "local",
		AuthMethod: "basic",
	}, nil
}

// Name implements Authenticator.
func (a *BasicAuthenticator) Name() string { return "basic" }

// Priority implements Authenticator. Basic runs last; it is the
// cheapest to attempt but the least specific.
func (a *BasicAuthenticator) Priority() int { return 25 }
