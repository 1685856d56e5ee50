package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"comment-board/internal/cache"
	"comment-board/internal/domain"
	"comment-board/internal/repository"
)

var (
	// ErrUnauthenticated indicates the operation requires a resolved session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the requester is not the comment's author.
	ErrForbidden = errors.New("not the comment author")
)

// CommentService implements ownership-gated CRUD over board comments.
// Authorization always compares the resolved session identity against
// the stored author, never a client-submitted id.
type CommentService interface {
	Create(ctx context.Context, requester *domain.Identity, text string) (*domain.Comment, error)
	Update(ctx context.Context, requester *domain.Identity, id int64, text string) error
	Delete(ctx context.Context, requester *domain.Identity, id int64) error
	List(ctx context.Context) ([]domain.Comment, error)
}

type commentService struct {
	comments repository.CommentRepository
	lists    cache.Lists
	logger   *logrus.Logger
}

func NewCommentService(comments repository.CommentRepository, lists cache.Lists, logger *logrus.Logger) CommentService {
	return &commentService{comments: comments, lists: lists, logger: logger}
}

func (s *commentService) Create(ctx context.Context, requester *domain.Identity, text string) (*domain.Comment, error) {
	if requester == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment cannot be empty", ErrValidation)
	}

	comment := &domain.Comment{
		Text:     text,
		AuthorID: requester.ID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return comment, nil
}

func (s *commentService) Update(ctx context.Context, requester *domain.Identity, id int64, text string) error {
	if requester == nil {
		return ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: comment cannot be empty", ErrValidation)
	}

	existing, err := s.comments.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != requester.ID {
		return ErrForbidden
	}

	if err := s.comments.UpdateText(ctx, id, text); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *commentService) Delete(ctx context.Context, requester *domain.Identity, id int64) error {
	if requester == nil {
		return ErrUnauthenticated
	}

	existing, err := s.comments.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.AuthorID != requester.ID {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// List returns the board newest-first, reading through the cache when
// one is configured. Cache failures fall back to storage.
func (s *commentService) List(ctx context.Context) ([]domain.Comment, error) {
	cached, ok, err := s.lists.Get(ctx)
	if err != nil {
		s.logger.Warnf("read comment cache: %v", err)
	} else if ok {
		return cached, nil
	}

	comments, err := s.comments.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.lists.Set(ctx, comments); err != nil {
		s.logger.Warnf("fill comment cache: %v", err)
	}
	return comments, nil
}

func (s *commentService) invalidate(ctx context.Context) {
	if err := s.lists.Invalidate(ctx); err != nil {
		s.logger.Warnf("invalidate comment cache: %v", err)
	}
}
