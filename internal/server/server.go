package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/daybreak-app/daybreak/internal/digest"
	"github.com/daybreak-app/daybreak/internal/email"
	"github.com/daybreak-app/daybreak/internal/handler"
	"github.com/daybreak-app/daybreak/internal/middleware"
	"github.com/daybreak-app/daybreak/internal/news"
	"github.com/daybreak-app/daybreak/internal/otp"
	"github.com/daybreak-app/daybreak/internal/store"
)

type Server struct {
	db           *sql.DB
	authH        *handler.AuthHandler
	preferenceH  *handler.PreferenceHandler
	digestH      *handler.DigestHandler
	sessionStore *store.SessionStore
	otpStore     *store.OTPStore
	logger       *slog.Logger
}

func New(db *sql.DB, newsSvc *news.Service, emailClient *email.Client, logger *slog.Logger) *Server {
	credentialStore := store.NewCredentialStore(db)
	sessionStore := store.NewSessionStore(db)
	otpStore := store.NewOTPStore(db)
	preferenceStore := store.NewPreferenceStore(db)
	digestStore := store.NewDigestStore(db)

	issuer := otp.NewIssuer(credentialStore, otpStore, emailClient, logger.With("component", "otp"))
	builder := digest.NewBuilder(preferenceStore, digestStore, newsSvc, logger.With("component", "digest"))

	return &Server{
		db:           db,
		authH:        handler.NewAuthHandler(credentialStore, sessionStore, preferenceStore, issuer, logger.With("component", "auth")),
		preferenceH:  handler.NewPreferenceHandler(preferenceStore, builder, logger.With("component", "preference")),
		digestH:      handler.NewDigestHandler(builder, logger.With("component", "digest_handler")),
		sessionStore: sessionStore,
		otpStore:     otpStore,
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// OTPStore returns the OTP store for cleanup tasks.
func (s *Server) OTPStore() *store.OTPStore {
	return s.otpStore
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no session required)
	outerMux.HandleFunc("POST /signup/request-otp", s.authH.RequestOTP)
	outerMux.HandleFunc("POST /signup/verify-otp", s.authH.VerifyOTP)
	outerMux.HandleFunc("POST /login", s.authH.Login)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /logout", s.authH.Logout)
	protectedMux.HandleFunc("GET /preferences", s.preferenceH.Get)
	protectedMux.HandleFunc("PUT /preferences", s.preferenceH.Update)
	protectedMux.HandleFunc("GET /digest", s.digestH.Fresh)
	protectedMux.HandleFunc("GET /digest/cached", s.digestH.Cached)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
