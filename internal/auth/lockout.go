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
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lodestone/internal/logging"
	"github.com/tomtom215/lodestone/internal/metrics"
)

// Lockout errors.
var (
	ErrLockoutNotFound = errors.New("lockout entry not found")
	ErrAccountLocked   = errors.New("account locked")
)

// staleEntryAge is how long an unlocked entry with no new failures is
// kept before cleanup discards it.
const staleEntryAge = time.Hour

// LockoutConfig tunes the failed-login lockout policy.
type LockoutConfig struct {
	// MaxAttempts is the number of failures before a lockout triggers.
	MaxAttempts int

	// LockoutDuration is the base lockout length.
	LockoutDuration time.Duration

	// MaxLockoutDuration caps exponential backoff.
	MaxLockoutDuration time.Duration

	// EnableExponentialBackoff doubles the lockout on each repeat.
	EnableExponentialBackoff bool

	// CleanupInterval controls how often stale entries are swept.
	CleanupInterval time.Duration

	// TrackByIP additionally counts failures per source IP, so a
	// distributed guesser rotating usernames still trips the lock.
	TrackByIP bool

	// Enabled turns the whole mechanism on.
	Enabled bool
}

// DefaultLockoutConfig returns the production policy: five failures,
// fifteen minutes, doubling up to a day.
func DefaultLockoutConfig() *LockoutConfig {
	return &LockoutConfig{
		MaxAttempts:              5,
		LockoutDuration:          15 * time.Minute,
		MaxLockoutDuration:       24 * time.Hour,
		EnableExponentialBackoff: true,
		CleanupInterval:          5 * time.Minute,
		TrackByIP:                true,
		Enabled:                  true,
	}
}

// LockoutEntry tracks failures for one subject, which is either a
// username or an "ip:" prefixed source address.
type LockoutEntry struct {
	Subject         string    `json:"subject"`
	FailedAttempts  int       `json:"failed_attempts"`
	LastAttempt     time.Time `json:"last_attempt"`
	LockoutCount    int       `json:"lockout_count"`
	LockedUntil     time.Time `json:"locked_until,omitempty"`
	LastFailedIP    string    `json:"last_failed_ip,omitempty"`
	LastFailedAgent string    `json:"last_failed_agent,omitempty"`
}

// IsLocked reports whether the entry is currently locked.
func (e *LockoutEntry) IsLocked() bool {
	return time.Now().Before(e.LockedUntil)
}

// LockoutStore persists lockout entries.
type LockoutStore interface {
	GetEntry(ctx context.Context, subject string) (*LockoutEntry, error)
	SaveEntry(ctx context.Context, entry *LockoutEntry) error
	DeleteEntry(ctx context.Context, subject string) error
	ListLockedEntries(ctx context.Context) ([]*LockoutEntry, error)
	CleanupExpired(ctx context.Context) (int, error)
}

// MemoryLockoutStore keeps lockout state in a map. Lockouts reset on
// restart, which is acceptable: the attacker also loses their counted
// progress.
type MemoryLockoutStore struct {
	mu      sync.RWMutex
	entries map[string]*LockoutEntry
}

// NewMemoryLockoutStore creates an empty store.
func NewMemoryLockoutStore() *MemoryLockoutStore {
	return &MemoryLockoutStore{entries: make(map[string]*LockoutEntry)}
}

// GetEntry implements LockoutStore.
func (s *MemoryLockoutStore) GetEntry(_ context.Context, subject string) (*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[subject]
	if !ok {
		return nil, ErrLockoutNotFound
	}
	return copyLockoutEntry(entry), nil
}

// SaveEntry implements LockoutStore.
func (s *MemoryLockoutStore) SaveEntry(_ context.Context, entry *LockoutEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Subject] = copyLockoutEntry(entry)
	return nil
}

// DeleteEntry implements LockoutStore.
func (s *MemoryLockoutStore) DeleteEntry(_ context.Context, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, subject)
	return nil
}

// ListLockedEntries implements LockoutStore.
func (s *MemoryLockoutStore) ListLockedEntries(_ context.Context) ([]*LockoutEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*LockoutEntry
	for _, entry := range s.entries {
		if entry.IsLocked() {
			out = append(out, copyLockoutEntry(entry))
		}
	}
	return out, nil
}

// CleanupExpired implements LockoutStore. Entries that are unlocked
// and quiet for staleEntryAge are discarded.
func (s *MemoryLockoutStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-staleEntryAge)
	for subject, entry := range s.entries {
		if !entry.IsLocked() && entry.LastAttempt.Before(cutoff) {
			delete(s.entries, subject)
			removed++
		}
	}
	return removed, nil
}

func copyLockoutEntry(e *LockoutEntry) *LockoutEntry {
	out := *e
	return &out
}

// LockoutManager applies the lockout policy over a store. All methods
// are no-ops when the policy is disabled.
type LockoutManager struct {
	config *LockoutConfig
	store  LockoutStore

	mu             sync.Mutex
	onLockout      func(subject string, until time.Time)
	onFailedLogin  func(subject, ip string, attempts int)
	onLockoutClear func(subject string)
}

// NewLockoutManager builds a manager; nil config uses the defaults.
func NewLockoutManager(cfg *LockoutConfig, store LockoutStore) *LockoutManager {
	if cfg == nil {
		cfg = DefaultLockoutConfig()
	}
	if store == nil {
		store = NewMemoryLockoutStore()
	}
	return &LockoutManager{config: cfg, store: store}
}

// SetOnLockout registers a callback fired when a lockout triggers.
func (m *LockoutManager) SetOnLockout(fn func(subject string, until time.Time)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLockout = fn
}

// SetOnFailedLogin registers a callback fired on every counted failure.
func (m *LockoutManager) SetOnFailedLogin(fn func(subject, ip string, attempts int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFailedLogin = fn
}

// SetOnLockoutClear registers a callback fired when a lockout is
// cleared by an admin or a successful login.
func (m *LockoutManager) SetOnLockoutClear(fn func(subject string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onLockoutClear = fn
}

// CheckLocked reports whether the subject or, when IP tracking is on,
// the source IP is locked, and for how much longer.
func (m *LockoutManager) CheckLocked(ctx context.Context, subject, ip string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	subjects := []string{subject}
	if m.config.TrackByIP && ip != "" {
		subjects = append(subjects, ipSubject(ip))
	}

	for _, s := range subjects {
		entry, err := m.store.GetEntry(ctx, s)
		if errors.Is(err, ErrLockoutNotFound) {
			continue
		}
		if err != nil {
			return false, 0, fmt.Errorf("checking lockout: %w", err)
		}
		if entry.IsLocked() {
			return true, time.Until(entry.LockedUntil), nil
		}
	}
	return false, 0, nil
}

// RecordFailedAttempt counts a failure against the username and, when
// configured, the source IP. It returns whether the failure tripped a
// lockout and the remaining lockout time.
func (m *LockoutManager) RecordFailedAttempt(ctx context.Context, username, ip, userAgent string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return false, 0, nil
	}

	locked, remaining, err := m.recordFailure(ctx, username, ip, userAgent)
	if err != nil {
		return false, 0, err
	}

	if m.config.TrackByIP && ip != "" {
		ipLocked, ipRemaining, err := m.recordFailure(ctx, ipSubject(ip), ip, userAgent)
		if err != nil {
			return false, 0, err
		}
		if ipLocked && (!locked || ipRemaining > remaining) {
			locked, remaining = true, ipRemaining
		}
	}
	return locked, remaining, nil
}

func (m *LockoutManager) recordFailure(ctx context.Context, subject, ip, userAgent string) (bool, time.Duration, error) {
	entry, err := m.store.GetEntry(ctx, subject)
	if errors.Is(err, ErrLockoutNotFound) {
		entry = &LockoutEntry{Subject: subject}
	} else if err != nil {
		return false, 0, fmt.Errorf("loading lockout entry: %w", err)
	}

	if entry.IsLocked() {
		return true, time.Until(entry.LockedUntil), nil
	}

	entry.FailedAttempts++
	entry.LastAttempt = time.Now()
	entry.LastFailedIP = ip
	entry.LastFailedAgent = userAgent

	m.mu.Lock()
	onFailed := m.onFailedLogin
	onLockout := m.onLockout
	m.mu.Unlock()

	if onFailed != nil {
		onFailed(subject, ip, entry.FailedAttempts)
	}

	locked := false
	var remaining time.Duration
	if entry.FailedAttempts >= m.config.MaxAttempts {
		duration := m.lockoutDuration(entry.LockoutCount)
		entry.LockedUntil = time.Now().Add(duration)
		entry.LockoutCount++
		entry.FailedAttempts = 0
		locked = true
		remaining = duration

		metrics.RecordLockout()
		logging.Warn().
			Str("subject", subject).
			Str("source_ip", ip).
			Dur("duration", duration).
			Int("lockout_count", entry.LockoutCount).
			Msg("account locked after repeated failures")

		if onLockout != nil {
			onLockout(subject, entry.LockedUntil)
		}
	}

	if err := m.store.SaveEntry(ctx, entry); err != nil {
		return false, 0, fmt.Errorf("saving lockout entry: %w", err)
	}
	return locked, remaining, nil
}

// lockoutDuration computes the lockout length for the nth repeat.
func (m *LockoutManager) lockoutDuration(lockoutCount int) time.Duration {
	duration := m.config.LockoutDuration
	if m.config.EnableExponentialBackoff && lockoutCount > 0 {
		// Shift overflow guard: beyond 30 doublings the cap applies anyway.
		if lockoutCount > 30 {
			lockoutCount = 30
		}
		duration = m.config.LockoutDuration * time.Duration(1<<lockoutCount)
	}
	if m.config.MaxLockoutDuration > 0 && duration > m.config.MaxLockoutDuration {
		duration = m.config.MaxLockoutDuration
	}
	return duration
}

// RecordSuccessfulLogin clears the failure count for the username and
// its source IP.
func (m *LockoutManager) RecordSuccessfulLogin(ctx context.Context, username, ip string) error {
	if !m.config.Enabled {
		return nil
	}
	if err := m.store.DeleteEntry(ctx, username); err != nil {
		return err
	}
	if m.config.TrackByIP && ip != "" {
		return m.store.DeleteEntry(ctx, ipSubject(ip))
	}
	return nil
}

// ClearLockout removes a lockout by admin action.
func (m *LockoutManager) ClearLockout(ctx context.Context, subject string) error {
	if err := m.store.DeleteEntry(ctx, subject); err != nil {
		return err
	}

	m.mu.Lock()
	onClear := m.onLockoutClear
	m.mu.Unlock()
	if onClear != nil {
		onClear(subject)
	}
	return nil
}

// GetLockedAccounts lists currently locked subjects.
func (m *LockoutManager) GetLockedAccounts(ctx context.Context) ([]*LockoutEntry, error) {
	return m.store.ListLockedEntries(ctx)
}

// StartCleanupRoutine sweeps stale entries until ctx is canceled.
func (m *LockoutManager) StartCleanupRoutine(ctx context.Context) {
	if !m.config.Enabled {
		return
	}
	go func() {
		ticker := time.NewTicker(m.config.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := m.store.CleanupExpired(ctx); err != nil {
					logging.Warn().Err(err).Msg("lockout cleanup failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// ipSubject namespaces per-IP lockout entries.
func ipSubject(ip string) string {
	return "ip:" + ip
}

// writeLockoutResponse answers a locked request with 429 and a
// Retry-After hint.
func writeLockoutResponse(w http.ResponseWriter, remaining time.Duration) {
	seconds := int(remaining.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":               "account temporarily locked",
		"retry_after_seconds": seconds,
	})
}
