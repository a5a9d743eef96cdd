// file: service/token_service.go

package service

import (
	"errors"
	"fmt"
	"noxa-api/logger"
	"noxa-api/model"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenConfig holds the signing material for both token kinds.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenService signs and verifies access and refresh tokens. Each kind has its own secret and lifetime.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token service: both secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("token service: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token service: lifetimes must be positive")
	}
	return &TokenService{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		issuer:     cfg.Issuer,
		now:        time.Now,
	}, nil
}

func (s *TokenService) IssueAccess(principalID string) (model.Token, error) {
	return s.issue(principalID, model.TokenKindAccess)
}

func (s *TokenService) IssueRefresh(principalID string) (model.Token, error) {
	return s.issue(principalID, model.TokenKindRefresh)
}

func (s *TokenService) keyFor(kind model.TokenKind) ([]byte, time.Duration, error) {
	switch kind {
	case model.TokenKindAccess:
		return s.accessKey, s.accessTTL, nil
	case model.TokenKindRefresh:
		return s.refreshKey, s.refreshTTL, nil
	default:
		return nil, 0, fmt.Errorf("unknown token kind %q", kind)
	}
}

func (s *TokenService) issue(principalID string, kind model.TokenKind) (model.Token, error) {
	if principalID == "" {
		return model.Token{}, fmt.Errorf("%w: empty subject", ErrInvalidInput)
	}
	key, ttl, err := s.keyFor(kind)
	if err != nil {
		return model.Token{}, err
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(ttl)
	claims := &model.AppClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principalID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"principal_id": principalID,
			"kind":         kind,
		}).Error("Failed to sign JWT")
		return model.Token{}, fmt.Errorf("failed to sign token string: %w", err)
	}

	return model.Token{
		Value:     signed,
		Kind:      kind,
		Subject:   principalID,
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature, expiry, issuer and kind, and returns the token's subject.
func (s *TokenService) Verify(tokenString string, expected model.TokenKind) (string, error) {
	key, _, err := s.keyFor(expected)
	if err != nil {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &model.AppClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Kind != expected || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// ExpiryOf reads the exp claim without verifying the token. It returns nil when the token is
// malformed or carries no expiry.
func (s *TokenService) ExpiryOf(tokenString string) *time.Time {
	claims := &model.AppClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time
	return &exp
}
