package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/daybreak-app/daybreak/internal/database"
)

func setupSessionTestDB(t *testing.T) (*SessionStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cs := NewCredentialStore(db)
	if err := cs.Create("alice@example.com", "hunter2"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewSessionStore(db), db
}

func TestSessionCreate(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	sess, err := ss.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Error("expected non-empty token")
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", sess.Email, "alice@example.com")
	}
	if !sess.ExpiresAt.After(time.Now().UTC().Add(23 * time.Hour)) {
		t.Errorf("expires_at = %v, want ~24h out", sess.ExpiresAt)
	}
}

func TestSessionTokensAreUnique(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	first, err := ss.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create first session: %v", err)
	}
	second, err := ss.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create second session: %v", err)
	}
	if first.Token == second.Token {
		t.Error("expected distinct tokens for concurrent sessions")
	}

	// Both resolve; multiple sessions per email are allowed.
	for _, tok := range []string{first.Token, second.Token} {
		sess, err := ss.GetByToken(tok)
		if err != nil || sess == nil {
			t.Errorf("GetByToken(%q) = (%v, %v), want session", tok, sess, err)
		}
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	sess, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionExpiredTokenDoesNotResolve(t *testing.T) {
	ss, db := setupSessionTestDB(t)

	created, err := ss.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	expired := time.Now().UTC().Add(-time.Minute)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE token = ?`, expired, created.Token); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected expired session not to resolve")
	}
}

func TestSessionRevokeIsNotIdempotent(t *testing.T) {
	ss, _ := setupSessionTestDB(t)

	created, err := ss.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := ss.DeleteByToken(created.Token); err != nil {
		t.Fatalf("first revoke: %v", err)
	}

	err = ss.DeleteByToken(created.Token)
	if !errors.Is(err, ErrInvalidSession) {
		t.Errorf("second revoke err = %v, want ErrInvalidSession", err)
	}

	sess, _ := ss.GetByToken(created.Token)
	if sess != nil {
		t.Error("expected revoked session not to resolve")
	}
}

func TestSessionDeleteExpired(t *testing.T) {
	ss, db := setupSessionTestDB(t)

	live, _ := ss.Create("alice@example.com")
	stale, _ := ss.Create("alice@example.com")

	expired := time.Now().UTC().Add(-time.Minute)
	if _, err := db.Exec(`UPDATE sessions SET expires_at = ? WHERE token = ?`, expired, stale.Token); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	count, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if count != 1 {
		t.Errorf("deleted = %d, want 1", count)
	}

	sess, _ := ss.GetByToken(live.Token)
	if sess == nil {
		t.Error("expected live session to survive cleanup")
	}
}
