package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/daybreak-app/daybreak/internal/model"
)

// OTPStore keeps pending signup challenges. Rows behave like TTL cache
// entries: reads filter on expiry and a janitor prunes stale rows.
type OTPStore struct {
	db *sql.DB
}

func NewOTPStore(db *sql.DB) *OTPStore {
	return &OTPStore{db: db}
}

// Upsert stores a challenge for the email, replacing any prior one.
func (s *OTPStore) Upsert(email, code string, ttl time.Duration) (*model.OTPChallenge, error) {
	expiresAt := time.Now().UTC().Add(ttl)
	_, err := s.db.Exec(
		`INSERT INTO otp_challenges (email, code, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at, created_at = datetime('now')`,
		email, code, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert otp challenge: %w", err)
	}

	var ch model.OTPChallenge
	row := s.db.QueryRow(`SELECT email, code, expires_at, created_at FROM otp_challenges WHERE email = ?`, email)
	if err := row.Scan(&ch.Email, &ch.Code, &ch.ExpiresAt, &ch.CreatedAt); err != nil {
		return nil, fmt.Errorf("get otp challenge: %w", err)
	}
	return &ch, nil
}

// Consume deletes the challenge iff the code matches and has not expired.
// The conditional DELETE makes check-and-consume a single atomic statement,
// so a code can never verify twice.
func (s *OTPStore) Consume(email, code string) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM otp_challenges WHERE email = ? AND code = ? AND expires_at > datetime('now')`,
		email, code,
	)
	if err != nil {
		return false, fmt.Errorf("consume otp challenge: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *OTPStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM otp_challenges WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired otp challenges: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
