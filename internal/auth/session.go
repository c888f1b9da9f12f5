// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/lodestone/internal/logging"
)

// Session lifecycle errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Session is a server-side login record. JWT logins create one so the
// sessions API can list and revoke them; OIDC browser logins use the
// session cookie as their credential.
type Session struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Username       string            `json:"username"`
	Email          string            `json:"email,omitempty"`
	Roles          []string          `json:"roles"`
	Groups         []string          `json:"groups,omitempty"`
	Provider       string            `json:"provider"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ToAuthSubject converts the session into a request subject.
func (s *Session) ToAuthSubject() *AuthSubject {
	return &AuthSubject{
		ID:         s.UserID,
		Username:   s.Username,
		Email:      s.Email,
		Roles:      append([]string(nil), s.Roles...),
		Groups:     append([]string(nil), s.Groups...),
		Issuer:     s.Provider,
		AuthMethod: "session",
		IssuedAt:   s.CreatedAt.Unix(),
		ExpiresAt:  s.ExpiresAt.Unix(),
		SessionID:  s.ID,
	}
}

// NewSession creates a session for the subject with a random ID and
// the given lifetime.
func NewSession(subject *AuthSubject, duration time.Duration) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:             id,
		UserID:         subject.ID,
		Username:       subject.Username,
		Email:          subject.Email,
		Roles:          append([]string(nil), subject.Roles...),
		Groups:         append([]string(nil), subject.Groups...),
		Provider:       subject.Issuer,
		CreatedAt:      now,
		ExpiresAt:      now.Add(duration),
		LastAccessedAt: now,
	}, nil
}

// generateSessionID returns 32 bytes of crypto randomness, hex encoded.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SessionStore persists sessions. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	// Create persists a new session.
	Create(ctx context.Context, session *Session) error

	// Get returns the session, ErrSessionNotFound if absent, or
	// ErrSessionExpired if present but past expiry.
	Get(ctx context.Context, id string) (*Session, error)

	// Update replaces an existing session.
	Update(ctx context.Context, session *Session) error

	// Delete removes a session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes every session of a user and returns how
	// many were deleted.
	DeleteByUserID(ctx context.Context, userID string) (int, error)

	// GetByUserID lists the live sessions of a user.
	GetByUserID(ctx context.Context, userID string) ([]*Session, error)

	// Touch extends a session's expiry and refreshes LastAccessedAt.
	Touch(ctx context.Context, id string, newExpiry time.Time) error

	// CleanupExpired removes expired sessions and returns the count.
	CleanupExpired(ctx context.Context) (int, error)
}

// MemorySessionStore keeps sessions in a map. Sessions do not survive
// restarts; use the Badger store when persistence matters.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

// Create implements SessionStore.
func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Get implements SessionStore.
func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return copySession(session), nil
}

// Update implements SessionStore.
func (s *MemorySessionStore) Update(_ context.Context, session *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; !ok {
		return ErrSessionNotFound
	}
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Delete implements SessionStore.
func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// DeleteByUserID implements SessionStore.
func (s *MemorySessionStore) DeleteByUserID(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

// GetByUserID implements SessionStore.
func (s *MemorySessionStore) GetByUserID(_ context.Context, userID string) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Session
	for _, session := range s.sessions {
		if session.UserID == userID && !session.IsExpired() {
			out = append(out, copySession(session))
		}
	}
	return out, nil
}

// Touch implements SessionStore.
func (s *MemorySessionStore) Touch(_ context.Context, id string, newExpiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	session.ExpiresAt = newExpiry
	session.LastAccessedAt = time.Now()
	return nil
}

// CleanupExpired implements SessionStore.
func (s *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// copySession guards the store's internal state against caller mutation.
func copySession(s *Session) *Session {
	out := *s
	out.Roles = append([]string(nil), s.Roles...)
	out.Groups = append([]string(nil), s.Groups...)
	if s.Metadata != nil {
		out.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// StartSessionCleanupRoutine deletes expired sessions on an interval
// until the returned channel is closed.
func StartSessionCleanupRoutine(store SessionStore, interval time.Duration) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				removed, err := store.CleanupExpired(context.Background())
				if err != nil {
					logging.Warn().Err(err).Msg("session cleanup failed")
					continue
				}
				if removed > 0 {
					logging.Debug().Int("removed", removed).Msg("expired sessions cleaned up")
				}
			case <-done:
				return
			}
		}
	}()
	return done
}
