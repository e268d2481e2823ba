package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/daybreak-app/daybreak/internal/model"
)

// DigestStore keeps the last built digest per email. Articles are stored as
// a JSON document and decoded into the struct on read; concurrent rebuilds
// for the same email are last-writer-wins.
type DigestStore struct {
	db *sql.DB
}

func NewDigestStore(db *sql.DB) *DigestStore {
	return &DigestStore{db: db}
}

// Upsert fully replaces the stored digest for the email.
func (s *DigestStore) Upsert(email string, articles []model.ArticleSummary) error {
	raw, err := json.Marshal(articles)
	if err != nil {
		return fmt.Errorf("encode digest: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO digests (email, articles, built_at) VALUES (?, ?, datetime('now'))
		 ON CONFLICT(email) DO UPDATE SET articles = excluded.articles, built_at = datetime('now')`,
		email, string(raw),
	)
	if err != nil {
		return fmt.Errorf("upsert digest: %w", err)
	}
	return nil
}

// Get returns the stored digest, or nil when none exists.
func (s *DigestStore) Get(email string) (*model.Digest, error) {
	var d model.Digest
	var raw string
	row := s.db.QueryRow(`SELECT email, articles, built_at FROM digests WHERE email = ?`, email)
	err := row.Scan(&d.Email, &raw, &d.BuiltAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get digest: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &d.Articles); err != nil {
		return nil, fmt.Errorf("decode digest: %w", err)
	}
	return &d, nil
}
