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
	"sort"

	"github.com/tomtom215/lodestone/internal/logging"
)

// MultiAuthenticator tries a chain of authenticators in priority order.
// A method that finds no credentials for itself yields to the next one;
// a method that finds credentials and rejects them is terminal, so a
// forged token cannot fall through to a weaker method.
type MultiAuthenticator struct {
	authenticators []Authenticator
}

// NewMultiAuthenticator builds a chain from the given authenticators,
// sorted by ascending Priority. At least one is required.
func NewMultiAuthenticator(authenticators ...Authenticator) (*MultiAuthenticator, error) {
	chain := make([]Authenticator, 0, len(authenticators))
	for _, a := range authenticators {
		if a != nil {
			chain = append(chain, a)
		}
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("at least one authenticator is required")
	}

	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Priority() < chain[j].Priority()
	})

	return &MultiAuthenticator{authenticators: chain}, nil
}

// Authenticate implements Authenticator.
func (m *MultiAuthenticator) Authenticate(ctx context.Context, r *http.Request) (*AuthSubject, error) {
	var lastErr error

	for _, a := range m.authenticators {
		subject, err := a.Authenticate(ctx, r)
		if err == nil {
			return subject, nil
		}

		if !m.shouldTryNext(err) {
			logging.Debug().
				Str("authenticator", a.Name()).
				Err(err).
				Msg("authentication rejected")
			return nil, err
		}

		lastErr = err
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoCredentials
}

// shouldTryNext reports whether the chain should continue after err.
// Only "nothing for me here" and "I cannot check right now" yield.
func (m *MultiAuthenticator) shouldTryNext(err error) bool {
	return errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrAuthenticatorUnavailable)
}

// Name implements Authenticator.
func (m *MultiAuthenticator) Name() string { return "multi" }

// Priority implements Authenticator.
func (m *MultiAuthenticator) Priority() int { return 0 }

// Authenticators exposes the ordered chain, mainly for diagnostics.
func (m *MultiAuthenticator) Authenticators() []Authenticator {
	out := make([]Authenticator, len(m.authenticators))
	copy(out, m.authenticators)
	return out
}
