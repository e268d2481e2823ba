package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daybreak-app/daybreak/internal/auth"
	"github.com/daybreak-app/daybreak/internal/model"
	"github.com/daybreak-app/daybreak/internal/otp"
	"github.com/daybreak-app/daybreak/internal/store"
)

type AuthHandler struct {
	credentials *store.CredentialStore
	sessions    *store.SessionStore
	prefs       *store.PreferenceStore
	issuer      *otp.Issuer
	logger      *slog.Logger
}

func NewAuthHandler(
	cs *store.CredentialStore,
	ss *store.SessionStore,
	ps *store.PreferenceStore,
	issuer *otp.Issuer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials: cs,
		sessions:    ss,
		prefs:       ps,
		issuer:      issuer,
		logger:      logger,
	}
}

// RequestOTP handles POST /signup/request-otp.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	addr := model.NormalizeEmail(req.Email)
	if !validEmail(addr) {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	err := h.issuer.Request(addr)
	switch {
	case errors.Is(err, otp.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "user already exists")
	case errors.Is(err, otp.ErrNotificationFailed):
		writeError(w, http.StatusBadGateway, "failed to send code")
	case err != nil:
		h.logger.Error("request otp", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue code")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent successfully"})
	}
}

// VerifyOTP handles POST /signup/verify-otp. On success the credential is
// created and preferences are seeded with the full topic catalog.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		OTP      string `json:"otp"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	addr := model.NormalizeEmail(req.Email)
	if !validEmail(addr) {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.OTP) != 6 || !isDigits(req.OTP) {
		writeError(w, http.StatusBadRequest, "invalid or expired OTP")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	if err := h.issuer.VerifyAndConsume(addr, req.OTP); err != nil {
		if errors.Is(err, otp.ErrInvalidOrExpired) {
			writeError(w, http.StatusBadRequest, "invalid or expired OTP")
			return
		}
		h.logger.Error("verify otp", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to verify code")
		return
	}

	if err := h.credentials.Create(addr, req.Password); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			writeError(w, http.StatusConflict, "user already exists")
			return
		}
		h.logger.Error("create credential", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	// New accounts start subscribed to every topic.
	if _, err := h.prefs.Upsert(addr, model.Topics); err != nil {
		h.logger.Error("seed preferences", "email", addr, "error", err)
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered successfully"})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	addr := model.NormalizeEmail(req.Email)
	ok, err := h.credentials.Verify(addr, req.Password)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("verify credential", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	sess, err := h.sessions.Create(addr)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "login successful",
		"session_token": sess.Token,
	})
}

// Logout handles POST /logout. Revocation is not idempotent: logging out
// twice with the same token fails the second time.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid session")
		return
	}

	if err := h.sessions.DeleteByToken(ac.Token); err != nil {
		if errors.Is(err, store.ErrInvalidSession) {
			writeError(w, http.StatusUnauthorized, "invalid session or already logged out")
			return
		}
		h.logger.Error("delete session", "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

func validEmail(addr string) bool {
	at := strings.IndexByte(addr, '@')
	return at > 0 && at < len(addr)-1
}
