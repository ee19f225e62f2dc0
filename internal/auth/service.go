package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogicum/blogicum/internal/db"
	"github.com/blogicum/blogicum/internal/models"
	"github.com/blogicum/blogicum/internal/session"
	"github.com/blogicum/blogicum/pkg/logging"
)

var (
	// ErrInvalidCredentials is returned when a username/password pair does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUsernameTaken is returned when registering an existing username
	ErrUsernameTaken = errors.New("username already taken")
)

// Service registers users, checks passwords and manages login sessions
type Service struct {
	users    *db.UserRepository
	sessions *session.Store
	cost     int
	logger   *zap.Logger
}

// Option customizes a Service
type Option func(*Service)

// WithBcryptCost overrides the bcrypt cost used for new hashes
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates an authentication service
func NewService(users *db.UserRepository, sessions *session.Store, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
		logger:   logging.WithComponent("auth"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput holds the fields of the sign-up form
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a user with a hashed password
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Authenticate returns the user matching username and password
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// ChangePassword replaces the password of user after checking the old one
func (s *Service) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

// Login starts a session for user and returns its token
func (s *Service) Login(ctx context.Context, user *models.User) (string, error) {
	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", err
	}
	s.logger.Debug("User logged in", zap.Int64("user_id", user.ID))
	return token, nil
}

// Logout ends the session behind token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// UserForToken resolves a session token to its user. Unknown tokens and deleted
// users yield (nil, nil).
func (s *Service) UserForToken(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.sessions.Get(ctx, token)
	if errors.Is(err, session.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// SessionTTLSeconds returns the session lifetime for cookie Max-Age
func (s *Service) SessionTTLSeconds() int {
	return int(s.sessions.TTL().Seconds())
}
