package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"comment-board/internal/cache"
	"comment-board/internal/domain"
	"comment-board/internal/repository"
)

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidation wraps rejected input (missing or malformed fields).
	ErrValidation = errors.New("invalid input")
	// ErrWrongPassword indicates the current password given for a password
	// change does not match the stored hash.
	ErrWrongPassword = errors.New("current password is incorrect")
)

// UpdateProfileInput is the validated payload for profile updates. A
// password change happens only when both password fields are set.
type UpdateProfileInput struct {
	Name            string
	Username        string
	CurrentPassword string
	NewPassword     string
}

// UserService describes account lifecycle operations.
type UserService interface {
	Register(ctx context.Context, name, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) error
	DeleteAccount(ctx context.Context, id string) error
}

type userService struct {
	users  repository.UserRepository
	lists  cache.Lists
	logger *logrus.Logger
}

func NewUserService(users repository.UserRepository, lists cache.Lists, logger *logrus.Logger) UserService {
	return &userService{users: users, lists: lists, logger: logger}
}

func (s *userService) Register(ctx context.Context, name, username, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	username = strings.TrimSpace(username)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, repository.ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Infof("registered user %s (%s)", user.Username, user.ID)
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *userService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	count, err := s.users.CountComments(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.Profile{
		ID:           user.ID,
		Name:         user.Name,
		Username:     user.Username,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt,
		CommentCount: count,
	}, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)

	if in.Name == "" || in.Username == "" {
		return fmt.Errorf("%w: name and username are required", ErrValidation)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if in.Username != user.Username {
		existing, err := s.users.GetByUsername(ctx, in.Username)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if existing != nil && existing.ID != user.ID {
			return repository.ErrUsernameTaken
		}
	}

	user.Name = in.Name
	user.Username = in.Username

	if in.CurrentPassword != "" && in.NewPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
			return ErrWrongPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	// listed comments embed the author name/username
	if err := s.lists.Invalidate(ctx); err != nil {
		s.logger.Warnf("invalidate comment cache: %v", err)
	}

	s.logger.Infof("updated profile for user %s", user.ID)
	return nil
}

// DeleteAccount removes the user and every comment they authored; the
// repository runs both deletes in one transaction. The cached listing is
// invalidated afterwards since the cascade removes board entries.
func (s *userService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.lists.Invalidate(ctx); err != nil {
		s.logger.Warnf("invalidate comment cache: %v", err)
	}

	s.logger.Infof("deleted account %s", id)
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
