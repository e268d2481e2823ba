package store

import "errors"

var (
	// ErrAlreadyExists is returned when creating a credential for an email
	// that already has one.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when verifying a password for an unknown email.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSession is returned when revoking a token that is absent or
	// already expired.
	ErrInvalidSession = errors.New("invalid session")

	// ErrInvalidTopic is returned when a preference update names a topic
	// outside the catalog.
	ErrInvalidTopic = errors.New("invalid topic")
)
