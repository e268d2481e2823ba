package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/daybreak-app/daybreak/internal/auth"
	"github.com/daybreak-app/daybreak/internal/store"
)

// RequireAuth resolves the bearer token into an AuthContext. Requests with
// a missing, unknown, or expired token get a 401 and never reach the
// handler. Resolution does not extend the session's lifetime.
func RequireAuth(sessionStore *store.SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				Email: sess.Email,
				Token: sess.Token,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "invalid session"})
}
