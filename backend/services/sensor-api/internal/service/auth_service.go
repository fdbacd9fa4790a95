package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"sensorhub/backend/services/sensor-api/internal/models"
	"sensorhub/backend/services/sensor-api/internal/password"
	"sensorhub/backend/services/sensor-api/internal/repository"
)

var (
	// ErrUsernameTaken is returned when attempting to register a duplicate username.
	ErrUsernameTaken = errors.New("auth: username already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Details returned to callers.
const (
	detailCredentialsRequired = "Username and password are required"
	detailPasswordTooLong     = "Password must be at most 72 bytes"
	detailUsernameTaken       = "Username already exists"
	detailInvalidCredentials  = "Invalid username or password"
	detailInvalidToken        = "Invalid or expired token"
)

// UserRepository defines storage contract used by the service.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService contains registration/login logic.
type AuthService struct {
	repo      UserRepository
	hasher    password.Hasher
	tokenizer *TokenService
	logger    *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(repo UserRepository, hasher password.Hasher, tokenizer *TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		repo:      repo,
		hasher:    hasher,
		tokenizer: tokenizer,
		logger:    logger,
	}
}

// Register creates a user with a hashed password.
func (s *AuthService) Register(ctx context.Context, username, pass string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return nil, invalidInput(detailCredentialsRequired, nil)
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		s.logger.Warn("registration rejected, username taken", zap.String("username", username))
		return nil, conflict(detailUsernameTaken, ErrUsernameTaken)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		s.logger.Error("failed to look up user", zap.String("username", username), zap.Error(err))
		return nil, internal(err)
	}

	hash, err := s.hasher.Hash(pass)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, invalidInput(detailPasswordTooLong, err)
		}
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, internal(err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			s.logger.Warn("registration lost uniqueness race", zap.String("username", username))
			return nil, conflict(detailUsernameTaken, ErrUsernameTaken)
		}
		s.logger.Error("failed to create user", zap.String("username", username), zap.Error(err))
		return nil, internal(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and produces a bearer token.
func (s *AuthService) Login(ctx context.Context, username, pass string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return "", invalidInput(detailCredentialsRequired, nil)
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", unauthenticated(detailInvalidCredentials, ErrInvalidCredentials)
		}
		s.logger.Error("failed to look up user", zap.String("username", username), zap.Error(err))
		return "", internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, pass); err != nil {
		if !errors.Is(err, password.ErrMismatch) {
			s.logger.Warn("stored password hash unusable", zap.String("username", username), zap.Error(err))
		}
		return "", unauthenticated(detailInvalidCredentials, ErrInvalidCredentials)
	}

	token, err := s.tokenizer.Issue(user.Username)
	if err != nil {
		s.logger.Error("failed to issue token", zap.String("username", username), zap.Error(err))
		return "", internal(err)
	}

	s.logger.Info("user logged in", zap.String("username", user.Username))
	return token, nil
}

// Authenticate verifies a bearer token and returns its subject.
func (s *AuthService) Authenticate(token string) (string, error) {
	subject, err := s.tokenizer.Verify(token)
	if err != nil {
		return "", unauthenticated(detailInvalidToken, err)
	}
	return subject, nil
}
