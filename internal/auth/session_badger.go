// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const (
	sessionKeyPrefix = "session:"

	// sessionUserKeyPrefix indexes sessions by user for the per-user
	// listing and bulk revocation operations:
	// session_user:<userID>:<sessionID> -> sessionID.
	sessionUserKeyPrefix = "session_user:"
)

// BadgerSessionStore persists sessions in BadgerDB so logins survive
// restarts. Keys carry a TTL matching the session expiry; badger
// removes them without an external sweeper, and CleanupExpired only
// reaps records whose TTL has not fired yet.
type BadgerSessionStore struct {
	db *badger.DB
}

// NewBadgerSessionStore wraps an open database. The store does not own
// the handle; Close the database where it was opened.
func NewBadgerSessionStore(db *badger.DB) (*BadgerSessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	return &BadgerSessionStore{db: db}, nil
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

func sessionUserKey(userID, sessionID string) []byte {
	return []byte(sessionUserKeyPrefix + userID + ":" + sessionID)
}

// Create implements SessionStore.
func (s *BadgerSessionStore) Create(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(sessionKey(session.ID), data).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		index := badger.NewEntry(sessionUserKey(session.UserID, session.ID), []byte(session.ID)).WithTTL(ttl)
		return txn.SetEntry(index)
	})
}

// Get implements SessionStore.
func (s *BadgerSessionStore) Get(_ context.Context, id string) (*Session, error) {
	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &session, nil
}

// Update implements SessionStore.
func (s *BadgerSessionStore) Update(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(sessionKey(session.ID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		entry := badger.NewEntry(sessionKey(session.ID), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}

// Delete implements SessionStore.
func (s *BadgerSessionStore) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var session Session
		item, err := txn.Get(sessionKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		}); err != nil {
			return err
		}
		if err := txn.Delete(sessionKey(id)); err != nil {
			return err
		}
		return txn.Delete(sessionUserKey(session.UserID, id))
	})
}

// DeleteByUserID implements SessionStore.
func (s *BadgerSessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	deleted := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(sessionUserKeyPrefix + userID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		// Collect first; the iterator must be closed before the
		// transaction mutates.
		it := txn.NewIterator(opts)
		var indexKeys [][]byte
		var sessionIDs []string
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			indexKeys = append(indexKeys, item.KeyCopy(nil))
			if err := item.Value(func(val []byte) error {
				sessionIDs = append(sessionIDs, string(val))
				return nil
			}); err != nil {
				it.Close()
				return err
			}
		}
		it.Close()

		for i, key := range indexKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete(sessionKey(sessionIDs[i])); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting sessions for user: %w", err)
	}
	return deleted, nil
}

// GetByUserID implements SessionStore.
func (s *BadgerSessionStore) GetByUserID(_ context.Context, userID string) ([]*Session, error) {
	var out []*Session
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(sessionUserKeyPrefix + userID + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var sessionID string
			if err := it.Item().Value(func(val []byte) error {
				sessionID = string(val)
				return nil
			}); err != nil {
				return err
			}

			item, err := txn.Get(sessionKey(sessionID))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			var session Session
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				return err
			}
			if !session.IsExpired() {
				out = append(out, &session)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing sessions for user: %w", err)
	}
	return out, nil
}

// Touch implements SessionStore.
func (s *BadgerSessionStore) Touch(ctx context.Context, id string, newExpiry time.Time) error {
	session, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	session.ExpiresAt = newExpiry
	session.LastAccessedAt = time.Now()
	return s.Update(ctx, session)
}

// CleanupExpired implements SessionStore. Badger's TTL already drops
// most expired records; this sweep catches sessions whose expiry was
// shortened after creation.
func (s *BadgerSessionStore) CleanupExpired(_ context.Context) (int, error) {
	var expired []string
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(sessionKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var session Session
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &session)
			}); err != nil {
				continue
			}
			if session.IsExpired() {
				expired = append(expired, session.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning sessions: %w", err)
	}

	removed := 0
	for _, id := range expired {
		if err := s.Delete(context.Background(), id); err == nil {
			removed++
		}
	}
	return removed, nil
}
