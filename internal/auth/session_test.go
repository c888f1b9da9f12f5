// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

func newRequestWithCookie(name, value string) *http.Request {
	r := httptest.NewRequest("GET", "/api/v1/status", nil)
	if name != "" {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

func newTestBadgerDB(t *testing.T) *badger.DB {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("opening in-memory badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing badger: %v", err)
		}
	})
	return db
}

func testSubject(id string) *AuthSubject {
	return &AuthSubject{
		ID:         id,
		Username:   id,
		Email:      id + "@example.com",
		Roles:      []string{"analyst"},
		Issuer:     "local",
		AuthMethod: "jwt",
	}
}

func TestNewSession(t *testing.T) {
	subject := testSubject("alice")
	session, err := NewSession(subject, time.Hour)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	if session.ID == "" {
		t.Error("session ID should be set")
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	if session.UserID != "alice" || session.Username != "alice" {
		t.Errorf("identity = %q/%q, want alice", session.UserID, session.Username)
	}
	if session.IsExpired() {
		t.Error("fresh session should not be expired")
	}
	if !session.ExpiresAt.After(session.CreatedAt) {
		t.Error("expiry should be after creation")
	}

	other, err := NewSession(subject, time.Hour)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	if other.ID == session.ID {
		t.Error("session IDs must be unique")
	}
}

func TestSession_ToAuthSubject(t *testing.T) {
	session, err := NewSession(testSubject("alice"), time.Hour)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}

	subject := session.ToAuthSubject()
	if subject.ID != "alice" {
		t.Errorf("ID = %q, want alice", subject.ID)
	}
	if subject.SessionID != session.ID {
		t.Errorf("SessionID = %q, want %q", subject.SessionID, session.ID)
	}
	if subject.AuthMethod != "session" {
		t.Errorf("AuthMethod = %q, want session", subject.AuthMethod)
	}
	if !subject.HasRole("analyst") {
		t.Error("roles should carry through")
	}
}

// runSessionStoreSuite exercises the SessionStore contract against any
// implementation.
func runSessionStoreSuite(t *testing.T, store SessionStore) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("create and get", func(t *testing.T) {
		session, err := NewSession(testSubject("alice"), time.Hour)
		if err != nil {
			t.Fatalf("NewSession() error = %v", err)
		}
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.UserID != "alice" {
			t.Errorf("UserID = %q, want alice", got.UserID)
		}
		if len(got.Roles) != 1 || got.Roles[0] != "analyst" {
			t.Errorf("Roles = %v, want [analyst]", got.Roles)
		}
	})

	t.Run("update", func(t *testing.T) {
		session, _ := NewSession(testSubject("bob"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		session.Email = "bob@lodestone.local"
		if err := store.Update(ctx, session); err != nil {
			t.Fatalf("Update() error = %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Email != "bob@lodestone.local" {
			t.Errorf("Email = %q after update", got.Email)
		}

		missing, _ := NewSession(testSubject("ghost"), time.Hour)
		if err := store.Update(ctx, missing); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Update() on missing session error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		session, _ := NewSession(testSubject("carol"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if err := store.Delete(ctx, session.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, err := store.Get(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get() after delete error = %v, want ErrSessionNotFound", err)
		}
		if err := store.Delete(ctx, session.ID); err != nil {
			t.Errorf("Delete() on missing session error = %v, want nil", err)
		}
	})

	t.Run("per-user listing and bulk delete", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			session, _ := NewSession(testSubject("dave"), time.Hour)
			if err := store.Create(ctx, session); err != nil {
				t.Fatalf("Create() error = %v", err)
			}
		}
		other, _ := NewSession(testSubject("erin"), time.Hour)
		if err := store.Create(ctx, other); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		sessions, err := store.GetByUserID(ctx, "dave")
		if err != nil {
			t.Fatalf("GetByUserID() error = %v", err)
		}
		if len(sessions) != 3 {
			t.Errorf("GetByUserID() returned %d sessions, want 3", len(sessions))
		}

		count, err := store.DeleteByUserID(ctx, "dave")
		if err != nil {
			t.Fatalf("DeleteByUserID() error = %v", err)
		}
		if count != 3 {
			t.Errorf("DeleteByUserID() = %d, want 3", count)
		}

		remaining, err := store.GetByUserID(ctx, "erin")
		if err != nil {
			t.Fatalf("GetByUserID() error = %v", err)
		}
		if len(remaining) != 1 {
			t.Errorf("other user's sessions affected: %d remain, want 1", len(remaining))
		}
	})

	t.Run("touch extends expiry", func(t *testing.T) {
		session, _ := NewSession(testSubject("frank"), time.Hour)
		if err := store.Create(ctx, session); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		newExpiry := time.Now().Add(2 * time.Hour)
		if err := store.Touch(ctx, session.ID, newExpiry); err != nil {
			t.Fatalf("Touch() error = %v", err)
		}

		got, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.ExpiresAt.Before(session.ExpiresAt) {
			t.Error("Touch() should move expiry forward")
		}

		if err := store.Touch(ctx, "missing", newExpiry); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Touch() on missing session error = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestMemorySessionStore(t *testing.T) {
	runSessionStoreSuite(t, NewMemorySessionStore())
}

func TestBadgerSessionStore(t *testing.T) {
	store, err := NewBadgerSessionStore(newTestBadgerDB(t))
	if err != nil {
		t.Fatalf("NewBadgerSessionStore() error = %v", err)
	}
	runSessionStoreSuite(t, store)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session, _ := NewSession(testSubject("alice"), time.Hour)
	session.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.Get(ctx, session.ID); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("Get() on expired session error = %v, want ErrSessionExpired", err)
	}

	sessions, err := store.GetByUserID(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUserID() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expired session listed: got %d, want 0", len(sessions))
	}

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
}

func TestBadgerSessionStore_RejectsExpired(t *testing.T) {
	store, err := NewBadgerSessionStore(newTestBadgerDB(t))
	if err != nil {
		t.Fatalf("NewBadgerSessionStore() error = %v", err)
	}

	session, _ := NewSession(testSubject("alice"), time.Hour)
	session.ExpiresAt = time.Now().Add(-time.Minute)
	if err := store.Create(context.Background(), session); err == nil {
		t.Error("Create() with past expiry should fail")
	}
}

func TestMemorySessionStore_CopiesOnRead(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session, _ := NewSession(testSubject("alice"), time.Hour)
	if err := store.Create(ctx, session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Roles[0] = "admin"

	again, err := store.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Roles[0] != "analyst" {
		t.Error("mutating a returned session leaked into the store")
	}
}

func TestSessionAuthenticator(t *testing.T) {
	store := NewMemorySessionStore()
	authenticator, err := NewSessionAuthenticator(store, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionAuthenticator() error = %v", err)
	}

	if authenticator.Name() != "session" {
		t.Errorf("Name() = %q, want session", authenticator.Name())
	}
	if authenticator.Priority() != 15 {
		t.Errorf("Priority() = %d, want 15", authenticator.Priority())
	}

	session, _ := NewSession(testSubject("alice"), time.Hour)
	if err := store.Create(context.Background(), session); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("valid cookie", func(t *testing.T) {
		r := newRequestWithCookie(sessionCookieName, session.ID)
		subject, err := authenticator.Authenticate(context.Background(), r)
		if err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}
		if subject.ID != "alice" || subject.SessionID != session.ID {
			t.Errorf("subject = %q/%q, want alice/%q", subject.ID, subject.SessionID, session.ID)
		}
	})

	t.Run("no cookie", func(t *testing.T) {
		r := newRequestWithCookie("", "")
		if _, err := authenticator.Authenticate(context.Background(), r); !errors.Is(err, ErrNoCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrNoCredentials", err)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		r := newRequestWithCookie(sessionCookieName, "deadbeef")
		if _, err := authenticator.Authenticate(context.Background(), r); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("expired session", func(t *testing.T) {
		expired, _ := NewSession(testSubject("bob"), time.Hour)
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		if err := store.Create(context.Background(), expired); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		r := newRequestWithCookie(sessionCookieName, expired.ID)
		if _, err := authenticator.Authenticate(context.Background(), r); !errors.Is(err, ErrExpiredCredentials) {
			t.Errorf("Authenticate() error = %v, want ErrExpiredCredentials", err)
		}
	})

	t.Run("sliding expiry touches near-expired sessions", func(t *testing.T) {
		nearExpiry, _ := NewSession(testSubject("carol"), time.Hour)
		nearExpiry.ExpiresAt = time.Now().Add(10 * time.Minute)
		if err := store.Create(context.Background(), nearExpiry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		r := newRequestWithCookie(sessionCookieName, nearExpiry.ID)
		if _, err := authenticator.Authenticate(context.Background(), r); err != nil {
			t.Fatalf("Authenticate() error = %v", err)
		}

		got, err := store.Get(context.Background(), nearExpiry.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !got.ExpiresAt.After(time.Now().Add(30 * time.Minute)) {
			t.Error("near-expired session should have been extended")
		}
	})
}
