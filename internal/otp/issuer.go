package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/daybreak-app/daybreak/internal/email"
	"github.com/daybreak-app/daybreak/internal/store"
)

const codeTTL = 5 * time.Minute

var (
	// ErrDuplicateIdentity is returned when requesting a code for an email
	// that is already registered.
	ErrDuplicateIdentity = errors.New("identity already registered")

	// ErrInvalidOrExpired is returned when no live challenge matches the
	// submitted code.
	ErrInvalidOrExpired = errors.New("invalid or expired code")

	// ErrNotificationFailed is returned when the code was stored but could
	// not be delivered. The challenge is still live and verifiable.
	ErrNotificationFailed = errors.New("notification failed")
)

// Issuer generates, stores, and verifies one-time signup codes.
type Issuer struct {
	credentials *store.CredentialStore
	challenges  *store.OTPStore
	mailer      *email.Client
	logger      *slog.Logger
}

func NewIssuer(cs *store.CredentialStore, os *store.OTPStore, mailer *email.Client, logger *slog.Logger) *Issuer {
	return &Issuer{
		credentials: cs,
		challenges:  os,
		mailer:      mailer,
		logger:      logger,
	}
}

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	// Range: 100000 to 999999 (900000 values)
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := n.Int64() + 100000
	return fmt.Sprintf("%06d", code), nil
}

// Request issues a challenge for the email and dispatches it. A prior live
// challenge for the same email is replaced. Storage success is decoupled
// from delivery: on a send failure the challenge stays issued and the
// caller gets ErrNotificationFailed.
func (i *Issuer) Request(addr string) error {
	exists, err := i.credentials.Exists(addr)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("request code for %s: %w", addr, ErrDuplicateIdentity)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	if _, err := i.challenges.Upsert(addr, code, codeTTL); err != nil {
		return err
	}

	if i.mailer == nil || !i.mailer.Configured() {
		i.logger.Info("signup code generated", "email", addr, "code", code)
		return nil
	}

	if err := i.mailer.SendSignupCode(addr, code); err != nil {
		i.logger.Error("send signup code", "email", addr, "error", err)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	return nil
}

// VerifyAndConsume checks the submitted code and deletes the challenge in
// the same statement, so success is single-use.
func (i *Issuer) VerifyAndConsume(addr, code string) error {
	ok, err := i.challenges.Consume(addr, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("verify code for %s: %w", addr, ErrInvalidOrExpired)
	}
	return nil
}
