package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/daybreak-app/daybreak/internal/auth"
	"github.com/daybreak-app/daybreak/internal/database"
	"github.com/daybreak-app/daybreak/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, http.Handler) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cs := store.NewCredentialStore(db)
	if err := cs.Create("alice@example.com", "hunter2"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	ss := store.NewSessionStore(db)
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(auth.Email(r.Context())))
	})
	return ss, RequireAuth(ss)(echo)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	_, h := setupAuthTest(t)

	req := httptest.NewRequest("GET", "/digest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthUnknownToken(t *testing.T) {
	_, h := setupAuthTest(t)

	req := httptest.NewRequest("GET", "/digest", nil)
	req.Header.Set("Authorization", "Bearer deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	ss, h := setupAuthTest(t)

	sess, err := ss.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	req := httptest.NewRequest("GET", "/digest", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "alice@example.com" {
		t.Errorf("resolved email = %q, want %q", rec.Body.String(), "alice@example.com")
	}
}

func TestRequireAuthRevokedToken(t *testing.T) {
	ss, h := setupAuthTest(t)

	sess, _ := ss.Create("alice@example.com")
	if err := ss.DeleteByToken(sess.Token); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	req := httptest.NewRequest("GET", "/digest", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc123", "abc123"},
		{"Bearer  abc123 ", "abc123"},
		{"bearer abc123", ""},
		{"Basic abc123", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
