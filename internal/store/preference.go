package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/daybreak-app/daybreak/internal/model"
)

// PreferenceStore keeps one topic set per email, serialized as a JSON array.
type PreferenceStore struct {
	db *sql.DB
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db}
}

// Get returns the stored topic set, or nil when no row exists.
func (s *PreferenceStore) Get(email string) ([]string, error) {
	var raw string
	err := s.db.QueryRow(`SELECT topics FROM preferences WHERE email = ?`, email).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	var topics []string
	if err := json.Unmarshal([]byte(raw), &topics); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return topics, nil
}

// Upsert validates the topics against the catalog and replaces the stored
// set entirely. Nothing is written when any topic is invalid. The set is
// stored deduplicated in catalog order.
func (s *PreferenceStore) Upsert(email string, topics []string) ([]string, error) {
	requested := make(map[string]bool, len(topics))
	for _, t := range topics {
		if !model.ValidTopic(t) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, t)
		}
		requested[t] = true
	}

	normalized := make([]string, 0, len(requested))
	for _, t := range model.Topics {
		if requested[t] {
			normalized = append(normalized, t)
		}
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO preferences (email, topics) VALUES (?, ?)
		 ON CONFLICT(email) DO UPDATE SET topics = excluded.topics, updated_at = datetime('now')`,
		email, string(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return normalized, nil
}
