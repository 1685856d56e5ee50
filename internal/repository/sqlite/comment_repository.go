package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"comment-board/internal/domain"
	"comment-board/internal/repository"
)

const createCommentsTable = `
CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	author_id TEXT NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

const createCommentsAuthorIndex = `
CREATE INDEX IF NOT EXISTS idx_comments_author ON comments(author_id);
`

type CommentRepository struct {
	db *sql.DB
}

func NewCommentRepository(db *sql.DB) repository.CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createCommentsTable); err != nil {
		return fmt.Errorf("create comments table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, createCommentsAuthorIndex); err != nil {
		return fmt.Errorf("create comments author index: %w", err)
	}
	return nil
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO comments (text, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?)`,
		comment.Text,
		comment.AuthorID,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("comment last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

func (r *CommentRepository) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.QueryRowContext(ctx, `
SELECT id, text, author_id, created_at, updated_at
FROM comments
WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Text, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan comment: %w", err)
	}
	return &c, nil
}

// UpdateText changes the comment body. created_at is left untouched so
// the board ordering stays stable across edits.
func (r *CommentRepository) UpdateText(ctx context.Context, id int64, text string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE comments
SET text = ?, updated_at = ?
WHERE id = ?`,
		text,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update comment rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) List(ctx context.Context) ([]domain.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.text, c.author_id, c.created_at, c.updated_at,
       u.id, u.name, u.username
FROM comments c
JOIN users u ON u.id = c.author_id
ORDER BY c.created_at DESC, c.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID,
			&c.Text,
			&c.AuthorID,
			&c.CreatedAt,
			&c.UpdatedAt,
			&c.Author.ID,
			&c.Author.Name,
			&c.Author.Username,
		); err != nil {
			return nil, fmt.Errorf("scan comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}
