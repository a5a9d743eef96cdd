// file: service/session_service.go

package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"noxa-api/logger"
	"noxa-api/metrics"
	"noxa-api/model"
	"noxa-api/repository"
	"time"
)

// SessionService owns the single refresh slot of every principal.
// Every write after StartSession goes through the repository's compare-and-swap, so a refresh
// token can be redeemed at most once even under concurrent requests.
type SessionService struct {
	repo      repository.ISessionRepository
	tokens    *TokenService
	digestKey []byte
	now       func() time.Time
}

func NewSessionService(repo repository.ISessionRepository, tokens *TokenService, digestKey string) *SessionService {
	return &SessionService{
		repo:      repo,
		tokens:    tokens,
		digestKey: []byte(digestKey),
		now:       time.Now,
	}
}

// Digest is the stored form of a refresh token: HMAC-SHA256 under the session digest key, hex encoded.
func (s *SessionService) Digest(token string) string {
	if len(s.digestKey) == 0 {
		sum := sha256.Sum256([]byte(token))
		return hex.EncodeToString(sum[:])
	}
	mac := hmac.New(sha256.New, s.digestKey)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *SessionService) issuePair(principalID string) (*model.TokenPair, *model.RefreshSession, error) {
	access, err := s.tokens.IssueAccess(principalID)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.tokens.IssueRefresh(principalID)
	if err != nil {
		return nil, nil, err
	}

	expiresAt := refresh.ExpiresAt
	if exp := s.tokens.ExpiryOf(refresh.Value); exp != nil {
		expiresAt = *exp
	}

	pair := &model.TokenPair{AccessToken: access.Value, RefreshToken: refresh.Value}
	session := &model.RefreshSession{TokenHash: s.Digest(refresh.Value), ExpiresAt: expiresAt}
	return pair, session, nil
}

// StartSession issues a fresh pair and overwrites whatever refresh session the principal had.
func (s *SessionService) StartSession(ctx context.Context, principalID string) (*model.TokenPair, error) {
	pair, session, err := s.issuePair(principalID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetRefreshSession(ctx, principalID, session); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return pair, nil
}

// Rotate redeems a refresh token for a new pair. The presented token stops working the moment
// the swap succeeds.
func (s *SessionService) Rotate(ctx context.Context, presented string) (*model.TokenPair, error) {
	log := logger.Log.WithField("operation", "rotate")

	principalID, err := s.tokens.Verify(presented, model.TokenKindRefresh)
	if err != nil {
		metrics.SessionRotations.WithLabelValues("invalid").Inc()
		return nil, ErrUnauthorized
	}
	log = log.WithField("principal_id", principalID)

	principal, err := s.repo.GetByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.SessionRotations.WithLabelValues("invalid").Inc()
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	current := principal.RefreshSession
	digest := s.Digest(presented)
	if current == nil || subtle.ConstantTimeCompare([]byte(current.TokenHash), []byte(digest)) != 1 {
		log.Info("Refresh token does not match the active session")
		metrics.SessionRotations.WithLabelValues("mismatch").Inc()
		return nil, ErrUnauthorized
	}

	if !current.ExpiresAt.IsZero() && !s.now().Before(current.ExpiresAt) {
		if _, err := s.repo.CompareAndSwapRefreshSession(ctx, principalID, current.TokenHash, nil); err != nil {
			log.WithError(err).Warn("Failed to clear expired refresh session")
		}
		metrics.SessionRotations.WithLabelValues("expired").Inc()
		return nil, ErrUnauthorized
	}

	pair, next, err := s.issuePair(principalID)
	if err != nil {
		return nil, err
	}

	swapped, err := s.repo.CompareAndSwapRefreshSession(ctx, principalID, current.TokenHash, next)
	if err != nil {
		return nil, fmt.Errorf("rotate refresh session: %w", err)
	}
	if !swapped {
		log.Info("Lost refresh rotation race")
		metrics.SessionRotations.WithLabelValues("lost").Inc()
		return nil, ErrUnauthorized
	}

	metrics.SessionRotations.WithLabelValues("rotated").Inc()
	return pair, nil
}

// EndSession clears the slot holding this refresh token. It is a no-op when no session matches.
func (s *SessionService) EndSession(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}
	digest := s.Digest(presented)

	principal, err := s.repo.GetByRefreshTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if _, err := s.repo.CompareAndSwapRefreshSession(ctx, principal.ID, digest, nil); err != nil {
		return err
	}
	logger.Log.WithField("principal_id", principal.ID).Info("Refresh session ended")
	return nil
}
