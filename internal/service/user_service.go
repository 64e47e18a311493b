package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hostedid/accounts/internal/logger"
	"github.com/hostedid/accounts/internal/model"
	"github.com/hostedid/accounts/internal/queue"
	"github.com/hostedid/accounts/internal/repository"
)

// User errors
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrUserNotFound = errors.New("user not found")
)

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type registerInput struct {
	Email string `validate:"required,email,max=254"`
}

// UserService handles account registration and lookup.
type UserService struct {
	users    UserStore
	welcome  *WelcomeEmailService
	jobs     queue.Dispatcher
	validate *validator.Validate
	log      *logger.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, welcome *WelcomeEmailService, jobs queue.Dispatcher, log *logger.Logger) *UserService {
	return &UserService{
		users:    users,
		welcome:  welcome,
		jobs:     jobs,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.WithComponent("users"),
	}
}

// Register creates an active account for address and queues its welcome
// email. A failure to queue the email is logged and does not undo the
// registration.
func (s *UserService) Register(ctx context.Context, address string) (*model.User, error) {
	address = NormalizeEmail(address)
	if err := s.validate.Struct(registerInput{Email: address}); err != nil {
		return nil, ErrInvalidEmail
	}

	exists, err := s.users.ExistsByEmail(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:         uuid.NewString(),
		Email:      address,
		IsActive:   true,
		DateJoined: now,
		UpdatedAt:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.welcome.Enqueue(ctx, s.jobs, user.Email); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to queue welcome email")
	}

	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return user, nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// NormalizeEmail trims surrounding space and lowercases the domain part.
func NormalizeEmail(address string) string {
	address = strings.TrimSpace(address)
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return address
	}
	return address[:at] + "@" + strings.ToLower(address[at+1:])
}
