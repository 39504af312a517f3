package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/social-blog-api/internal/config"
	"github.com/social-blog-api/internal/models"
	"github.com/social-blog-api/internal/repository"
	"github.com/social-blog-api/internal/validation"
)

type authService struct {
	repos     *repository.Repositories
	validator *validation.Validator
	cfg       *config.AuthConfig
	now       func() time.Time
	log       zerolog.Logger
}

func newAuthService(repos *repository.Repositories, validator *validation.Validator, cfg *config.AuthConfig, log zerolog.Logger) *authService {
	return &authService{
		repos:     repos,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
		log:       log.With().Str("service", "auth").Logger(),
	}
}

const usernameTaken = "a user with that username already exists"

// Signup registers a new account with a bcrypt password hash
func (s *authService) Signup(ctx context.Context, input *models.SignupInput) (*models.User, error) {
	if err := invalid(s.validator.ValidateSignup(input)); err != nil {
		return nil, err
	}

	existing, err := s.repos.User.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, fieldError("username", usernameTaken, input.Username)
	}

	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    s.now().UTC(),
	}
	err = s.repos.User.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, fieldError("username", usernameTaken, input.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User signed up")
	return user, nil
}

// Login checks credentials and opens a new session
func (s *authService) Login(ctx context.Context, input *models.LoginInput) (*models.Session, *models.User, error) {
	if err := invalid(s.validator.ValidateLogin(input)); err != nil {
		return nil, nil, err
	}

	user, err := s.repos.User.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}
	if err := s.repos.Session.Create(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("User logged in")
	return session, user, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.repos.Session.Delete(ctx, token)
}

// Authenticate returns the user owning a live session, or nil for guests
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	session, err := s.repos.Session.GetValid(ctx, token, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	return s.repos.User.GetByID(ctx, session.UserID)
}

// SetRole changes a user's role, e.g. to grant administration rights
func (s *authService) SetRole(ctx context.Context, username, role string) error {
	if !models.ValidRoles[role] {
		return fieldError("role", "invalid role, must be one of: user, admin", role)
	}
	user, err := s.repos.User.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}
	if err := s.repos.User.SetRole(ctx, user.ID, role); err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	s.log.Info().Str("username", username).Str("role", role).Msg("Role changed")
	return nil
}
