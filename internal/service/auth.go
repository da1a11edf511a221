package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/inkfeed/inkfeed/internal/auth"
	"github.com/inkfeed/inkfeed/internal/metrics"
	"github.com/inkfeed/inkfeed/internal/model"
	"github.com/inkfeed/inkfeed/internal/repository"
)

// AuthService handles signup, login, token checks and user status.
type AuthService struct {
	users   UserStore
	tokens  *auth.TokenManager
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, tokens *auth.TokenManager, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:   users,
		tokens:  tokens,
		logger:  logger.With("component", "auth.service"),
		metrics: recorder,
	}
}

// SignupInput defines input for creating an account.
type SignupInput struct {
	Email    string
	Name     string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token  string
	UserID string
}

// Signup validates input, hashes the password and stores the user.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (string, error) {
	fields := signupFields{
		Email:    normalizeEmail(input.Email),
		Name:     strings.TrimSpace(input.Name),
		Password: strings.TrimSpace(input.Password),
	}
	if err := check(fields); err != nil {
		return "", err
	}

	if _, err := s.users.GetUserByEmail(ctx, fields.Email); err == nil {
		return "", emailTaken(fields.Email)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return "", fmt.Errorf("failed to look up email: %w", err)
	}

	// Trimming applies to the length rule only; Login verifies the raw password.
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        fields.Email,
		Name:         fields.Name,
		PasswordHash: hash,
		Status:       model.DefaultStatus,
		PostIDs:      []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return "", emailTaken(fields.Email)
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncSignup()
	s.logger.Info("user signed up", "user_id", user.ID)

	return user.ID, nil
}

func emailTaken(email string) error {
	verr := newValidationError(FieldError{
		Field:    "email",
		Value:    email,
		Message:  "E-Mail address already exists!",
		Location: "body",
	})
	verr.Err = ErrEmailTaken
	return verr
}

// Login checks credentials and issues a bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncLogin("failed")
			return nil, ErrNoAccount
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.VerifyPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.metrics.IncLogin("failed")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.metrics.IncLogin("success")

	return &LoginResult{
		Token:  token,
		UserID: user.ID,
	}, nil
}

// Authenticate decodes a bearer token into the caller's identity.
func (s *AuthService) Authenticate(token string) (*model.Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	identity, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return identity, nil
}

// GetStatus returns the status line of userID.
func (s *AuthService) GetStatus(ctx context.Context, userID string) (string, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return user.Status, nil
}

// UpdateStatus replaces the status line of userID.
func (s *AuthService) UpdateStatus(ctx context.Context, userID, status string) error {
	fields := statusFields{Status: strings.TrimSpace(status)}
	if err := check(fields); err != nil {
		return err
	}

	if err := s.users.UpdateUserStatus(ctx, userID, fields.Status); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}
