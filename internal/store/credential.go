package store

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialStore holds the email -> password hash mapping. Hashing lives
// here so no caller ever handles a hash directly.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Exists reports whether a credential is stored for the email.
func (s *CredentialStore) Exists(email string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM users WHERE email = ?`, email).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return true, nil
}

// Create hashes the password with bcrypt and stores the credential.
// Returns ErrAlreadyExists if the email is already registered.
func (s *CredentialStore) Create(email, password string) error {
	exists, err := s.Exists(email)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("create credential for %s: %w", email, ErrAlreadyExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO users (email, password_hash) VALUES (?, ?)`,
		email, string(hash),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Verify checks the password against the stored hash. Returns ErrNotFound
// when no credential exists for the email; a wrong password is (false, nil).
func (s *CredentialStore) Verify(email, password string) (bool, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE email = ?`, email).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("verify credential for %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("get password hash: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return false, nil
	}
	return true, nil
}
