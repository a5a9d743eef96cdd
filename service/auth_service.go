// file: service/auth_service.go

package service

import (
	"context"
	"errors"
	"fmt"
	"noxa-api/logger"
	"noxa-api/model"
	"noxa-api/repository"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// AuthService handles registration, login and the session endpoints built on SessionService.
type AuthService struct {
	principals  repository.IPrincipalRepository
	sessions    *SessionService
	credentials *CredentialVerifier
	newID       func() string
}

func NewAuthService(principals repository.IPrincipalRepository, sessions *SessionService, credentials *CredentialVerifier) *AuthService {
	return &AuthService{
		principals:  principals,
		sessions:    sessions,
		credentials: credentials,
		newID:       uuid.NewString,
	}
}

// NormalizeUsername lowercases, trims and replaces inner spaces with underscores.
func NormalizeUsername(raw string) (string, error) {
	username := strings.Join(strings.Fields(strings.ToLower(raw)), "_")
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("%w: username must be 3-30 characters of letters, digits or underscores", ErrInvalidInput)
	}
	return username, nil
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	raw := req.Username
	if strings.TrimSpace(raw) == "" {
		raw = req.Name
	}
	username, err := NormalizeUsername(raw)
	if err != nil {
		return nil, err
	}
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}

	hash, err := s.credentials.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	principal := &model.Principal{
		ID:           s.newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.principals.Create(ctx, principal); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, err
	}

	pair, err := s.sessions.StartSession(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	logger.Log.WithField("principal_id", principal.ID).Info("Principal registered")
	return &model.AuthResponse{User: principal, TokenPair: *pair}, nil
}

func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	principal, err := s.principals.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}

	if !s.credentials.CheckPasswordHash(req.Password, principal.PasswordHash) {
		logger.Log.WithField("principal_id", principal.ID).Warn("Failed login attempt: incorrect password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.sessions.StartSession(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{User: principal, TokenPair: *pair}, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	return s.sessions.Rotate(ctx, refreshToken)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.EndSession(ctx, refreshToken)
}

func (s *AuthService) Me(ctx context.Context, principalID string) (*model.Principal, error) {
	principal, err := s.principals.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return principal, nil
}
