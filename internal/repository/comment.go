package repository

import (
	"context"

	"comment-board/internal/domain"
)

// CommentRepository exposes persistence operations for board comments.
type CommentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, comment *domain.Comment) error
	Get(ctx context.Context, id int64) (*domain.Comment, error)
	UpdateText(ctx context.Context, id int64, text string) error
	Delete(ctx context.Context, id int64) error
	// List returns all comments newest-first with the author projection
	// resolved.
	List(ctx context.Context) ([]domain.Comment, error)
}
