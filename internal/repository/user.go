package repository

import (
	"context"

	"comment-board/internal/domain"
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes the user and every comment they authored inside a
	// single transaction.
	Delete(ctx context.Context, id string) error
	CountComments(ctx context.Context, id string) (int, error)
}
