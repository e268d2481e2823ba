package model

import (
	"strings"
	"time"
)

// User is a registered identity. The email is the primary key everywhere.
type User struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail lowercases and trims an address so lookups are
// case-insensitive. Applied once at the API boundary.
func NormalizeEmail(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
