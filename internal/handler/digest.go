package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/daybreak-app/daybreak/internal/auth"
	"github.com/daybreak-app/daybreak/internal/digest"
)

type DigestHandler struct {
	builder *digest.Builder
	logger  *slog.Logger
}

func NewDigestHandler(b *digest.Builder, logger *slog.Logger) *DigestHandler {
	return &DigestHandler{builder: b, logger: logger}
}

// Fresh handles GET /digest: rebuild from the provider and persist.
func (h *DigestHandler) Fresh(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())

	d, err := h.builder.Rebuild(r.Context(), email)
	if err != nil {
		if errors.Is(err, digest.ErrNoPreferences) {
			writeError(w, http.StatusNotFound, "no preferences found")
			return
		}
		h.logger.Error("rebuild digest", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build digest")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// Cached handles GET /digest/cached: return the stored digest without
// querying the provider.
func (h *DigestHandler) Cached(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())

	d, err := h.builder.GetCached(email)
	if err != nil {
		if errors.Is(err, digest.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no digest found")
			return
		}
		h.logger.Error("get cached digest", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get digest")
		return
	}

	writeJSON(w, http.StatusOK, d)
}
