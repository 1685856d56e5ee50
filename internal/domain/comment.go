package domain

import "time"

// Comment is a single entry on the shared board.
type Comment struct {
	ID        int64
	Text      string
	AuthorID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Author    Author
}

// Author is the minimal author projection attached to listed comments.
type Author struct {
	ID       string
	Name     string
	Username string
}
