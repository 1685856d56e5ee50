package domain

import "time"

// Role values stored on User records. Only RoleUser is assigned today;
// RoleAdmin exists so the column has a defined vocabulary.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account.
type User struct {
	ID           string
	Name         string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the minimal view of a user resolved from a session token.
type Identity struct {
	ID       string
	Username string
	Role     string
}

// Profile is the projection returned for profile/dashboard views.
type Profile struct {
	ID           string
	Name         string
	Username     string
	Role         string
	CreatedAt    time.Time
	CommentCount int
}
