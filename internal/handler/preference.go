package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daybreak-app/daybreak/internal/auth"
	"github.com/daybreak-app/daybreak/internal/digest"
	"github.com/daybreak-app/daybreak/internal/store"
)

type PreferenceHandler struct {
	prefs   *store.PreferenceStore
	builder *digest.Builder
	logger  *slog.Logger
}

func NewPreferenceHandler(ps *store.PreferenceStore, b *digest.Builder, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{prefs: ps, builder: b, logger: logger}
}

// Update handles PUT /preferences. The stored set is fully replaced and the
// digest is rebuilt in the same request. A rebuild failure does not fail the
// update; the next digest fetch rebuilds again.
func (h *PreferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())

	var req struct {
		Topics []string `json:"topics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	stored, err := h.prefs.Upsert(email, req.Topics)
	if err != nil {
		if errors.Is(err, store.ErrInvalidTopic) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("upsert preferences", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}

	if len(stored) > 0 {
		if _, err := h.builder.Rebuild(r.Context(), email); err != nil {
			h.logger.Error("rebuild after preference update", "email", email, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "preferences updated successfully"})
}

// Get handles GET /preferences.
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := auth.Email(r.Context())

	topics, err := h.prefs.Get(email)
	if err != nil {
		h.logger.Error("get preferences", "email", email, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get preferences")
		return
	}
	if topics == nil {
		topics = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"topics": topics})
}
