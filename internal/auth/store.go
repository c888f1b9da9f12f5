// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/lodestone/internal/config"
	"github.com/tomtom215/lodestone/internal/logging"
)

// Stores bundles the session store and token revocation tracker. Both
// share one BadgerDB when persistence is configured, so a single
// directory holds all auth state.
type Stores struct {
	Sessions SessionStore
	JTIs     JTITracker

	db *badger.DB
}

// NewStores builds the configured session and revocation backends.
// "badger" opens (or creates) the database at SessionStorePath;
// anything else falls back to in-memory stores.
func NewStores(cfg *config.SecurityConfig) (*Stores, error) {
	if cfg.SessionStore != "badger" {
		logging.Debug().Msg("using in-memory auth stores")
		return &Stores{
			Sessions: NewMemorySessionStore(),
			JTIs:     NewMemoryJTITracker(),
		}, nil
	}

	if cfg.SessionStorePath == "" {
		return nil, fmt.Errorf("session store path must be set for badger store")
	}

	opts := badger.DefaultOptions(cfg.SessionStorePath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for auth store: %w", err)
	}

	sessions, err := NewBadgerSessionStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	jtis, err := NewBadgerJTITracker(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.SessionStorePath).Msg("auth store opened")
	return &Stores{Sessions: sessions, JTIs: jtis, db: db}, nil
}

// Close releases the backing database, if any.
func (s *Stores) Close() error {
	if err := s.JTIs.Close(); err != nil {
		return err
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
