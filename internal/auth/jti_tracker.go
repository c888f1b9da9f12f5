// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// JTI tracker errors.
var (
	// ErrJTIAlreadyUsed indicates the token ID is already recorded,
	// either revoked at logout or replayed.
	ErrJTIAlreadyUsed = errors.New("token id already used")

	// ErrJTIStoreClosed indicates the tracker was closed.
	ErrJTIStoreClosed = errors.New("jti store closed")
)

// jtiKeyPrefix namespaces tracker keys inside the shared auth database.
const jtiKeyPrefix = "jti:"

// JTIEntry records a consumed or revoked token ID. Entries live until
// the underlying token would have expired anyway; after that the
// signature check rejects the token on its own.
type JTIEntry struct {
	JTI       string    `json:"jti"`
	Issuer    string    `json:"issuer,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	ExpiresAt time.Time `json:"expires_at"`
	SourceIP  string    `json:"source_ip,omitempty"`
}

// JTITracker stores revoked token IDs. Logout records the token's jti
// here; the JWT authenticator rejects any token whose jti is present.
type JTITracker interface {
	// CheckAndStore atomically records the entry, failing with
	// ErrJTIAlreadyUsed if the ID is already present and unexpired.
	CheckAndStore(ctx context.Context, entry *JTIEntry, ttl time.Duration) error

	// IsUsed reports whether the ID is recorded and unexpired.
	IsUsed(ctx context.Context, jti string) (bool, error)

	// CleanupExpired removes expired entries and returns the count.
	CleanupExpired(ctx context.Context) (int, error)

	// Size returns the number of tracked IDs.
	Size(ctx context.Context) (int, error)

	// Close releases tracker resources. It does not close a shared
	// database handle.
	Close() error
}

// MemoryJTITracker keeps revocations in a map. Revocations are lost on
// restart, which re-validates tokens that were revoked early; use the
// Badger tracker when that matters.
type MemoryJTITracker struct {
	mu      sync.RWMutex
	entries map[string]*JTIEntry
	closed  bool
}

// NewMemoryJTITracker creates an empty in-memory tracker.
func NewMemoryJTITracker() *MemoryJTITracker {
	return &MemoryJTITracker{entries: make(map[string]*JTIEntry)}
}

// CheckAndStore implements JTITracker.
func (t *MemoryJTITracker) CheckAndStore(_ context.Context, entry *JTIEntry, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrJTIStoreClosed
	}

	if existing, ok := t.entries[entry.JTI]; ok && time.Now().Before(existing.ExpiresAt) {
		metrics.RecordJTIReplay()
		return ErrJTIAlreadyUsed
	}

	stored := *entry
	if stored.FirstSeen.IsZero() {
		stored.FirstSeen = time.Now()
	}
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = time.Now().Add(ttl)
	}
	t.entries[entry.JTI] = &stored
	metrics.RecordJTIOperation("store", nil)
	return nil
}

// IsUsed implements JTITracker.
func (t *MemoryJTITracker) IsUsed(_ context.Context, jti string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return false, ErrJTIStoreClosed
	}

	entry, ok := t.entries[jti]
	if !ok {
		return false, nil
	}
	return time.Now().Before(entry.ExpiresAt), nil
}

// CleanupExpired implements JTITracker.
func (t *MemoryJTITracker) CleanupExpired(_ context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, ErrJTIStoreClosed
	}

	now := time.Now()
	removed := 0
	for jti, entry := range t.entries {
		if now.After(entry.ExpiresAt) {
			delete(t.entries, jti)
			removed++
		}
	}
	return removed, nil
}

// Size implements JTITracker.
func (t *MemoryJTITracker) Size(_ context.Context) (int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, ErrJTIStoreClosed
	}
	return len(t.entries), nil
}

// Close implements JTITracker.
func (t *MemoryJTITracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.entries = nil
	return nil
}

// BadgerJTITracker persists revocations in BadgerDB so logout survives
// restarts. Entries carry a TTL so badger drops them once the token
// would have expired regardless.
type BadgerJTITracker struct {
	db *badger.DB
}

// NewBadgerJTITracker wraps an open database, usually shared with the
// Badger session store. The tracker does not own the handle.
func NewBadgerJTITracker(db *badger.DB) (*BadgerJTITracker, error) {
	if db == nil {
		return nil, fmt.Errorf("badger db must not be nil")
	}
	return &BadgerJTITracker{db: db}, nil
}

func jtiKey(jti string) []byte {
	return []byte(jtiKeyPrefix + jti)
}

// CheckAndStore implements JTITracker. The whole check-then-set runs
// in one transaction so concurrent revocations of the same ID cannot
// both succeed.
func (t *BadgerJTITracker) CheckAndStore(_ context.Context, entry *JTIEntry, ttl time.Duration) error {
	stored := *entry
	if stored.FirstSeen.IsZero() {
		stored.FirstSeen = time.Now()
	}
	if stored.ExpiresAt.IsZero() {
		stored.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		metrics.RecordJTIOperation("store", err)
		return fmt.Errorf("marshaling jti entry: %w", err)
	}

	err = t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(jtiKey(entry.JTI))
		if err == nil {
			var existing JTIEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &existing)
			}); err == nil && time.Now().Before(existing.ExpiresAt) {
				logging.Warn().
					Str("jti", entry.JTI).
					Str("subject", entry.Subject).
					Str("source_ip", entry.SourceIP).
					Msg("token id already recorded")
				return ErrJTIAlreadyUsed
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		e := badger.NewEntry(jtiKey(entry.JTI), data).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if errors.Is(err, ErrJTIAlreadyUsed) {
		metrics.RecordJTIReplay()
		return err
	}
	metrics.RecordJTIOperation("store", err)
	if err != nil {
		return fmt.Errorf("storing jti entry: %w", err)
	}
	return nil
}

// IsUsed implements JTITracker.
func (t *BadgerJTITracker) IsUsed(_ context.Context, jti string) (bool, error) {
	var used bool
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(jtiKey(jti))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var entry JTIEntry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return err
		}
		used = time.Now().Before(entry.ExpiresAt)
		return nil
	})
	if err != nil {
		metrics.RecordJTIOperation("check", err)
		return false, fmt.Errorf("checking jti: %w", err)
	}
	return used, nil
}

// CleanupExpired implements JTITracker. Badger's own TTL handles most
// of this; the sweep covers entries written without a TTL.
func (t *BadgerJTITracker) CleanupExpired(_ context.Context) (int, error) {
	var expired [][]byte
	err := t.db.View(func(txn *badger.Txn) error {
		prefix := []byte(jtiKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var entry JTIEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				continue
			}
			if now.After(entry.ExpiresAt) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning jti entries: %w", err)
	}

	removed := 0
	for _, key := range expired {
		err := t.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err == nil {
			removed++
		}
	}
	return removed, nil
}

// Size implements JTITracker. Keys only; values are not prefetched.
func (t *BadgerJTITracker) Size(_ context.Context) (int, error) {
	count := 0
	err := t.db.View(func(txn *badger.Txn) error {
		prefix := []byte(jtiKeyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("counting jti entries: %w", err)
	}
	return count, nil
}

// Close implements JTITracker. The shared database handle stays open.
func (t *BadgerJTITracker) Close() error {
	return nil
}

// StartJTICleanupRoutine sweeps expired revocations on an interval
// until the returned channel is closed.
func StartJTICleanupRoutine(tracker JTITracker, interval time.Duration) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := tracker.CleanupExpired(context.Background())
				if err != nil {
					logging.Warn().Err(err).Msg("jti cleanup failed")
					continue
				}
				if removed > 0 {
					logging.Debug().Int("removed", removed).Msg("expired token ids cleaned up")
				}
			case <-done:
				return
			}
		}
	}()
	return done
}
