package repository

import "errors"

// Sentinel errors surfaced by repositories so services can translate
// them with errors.Is instead of matching driver message strings.
var (
	// ErrNotFound indicates the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUsernameTaken indicates a unique constraint violation on username.
	ErrUsernameTaken = errors.New("username already taken")
)
