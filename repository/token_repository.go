// file: repository/token_repository.go

package repository

import (
	"context"
	"database/sql"
	"errors"
	"noxa-api/logger"
	"noxa-api/model"

	"github.com/sirupsen/logrus"
)

// GetByRefreshTokenHash retrieves the principal whose refresh slot holds tokenHash.
func (r *PrincipalRepository) GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.Principal, error) {
	logger.Log.Debug("Executing query to get principal by refresh token hash")
	return r.getOne(ctx, `SELECT `+principalColumns+` FROM principals WHERE refresh_token_hash = $1`, tokenHash)
}

// SetRefreshSession overwrites the refresh slot of a principal.
func (r *PrincipalRepository) SetRefreshSession(ctx context.Context, principalID string, session *model.RefreshSession) error {
	log := logger.Log.WithField("principal_id", principalID)
	log.Info("Executing query to replace the refresh session")

	hash, expiresAt := sessionArgs(session)
	query := `UPDATE principals SET refresh_token_hash = $2, refresh_token_expires_at = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, principalID, hash, expiresAt)
	if err != nil {
		err = classify(err)
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Error("Failed to execute set refresh session query")
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSwapRefreshSession only touches the row while refresh_token_hash still equals expectedHash,
// so concurrent rotations of one token cannot both win.
func (r *PrincipalRepository) CompareAndSwapRefreshSession(ctx context.Context, principalID, expectedHash string, next *model.RefreshSession) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"principal_id": principalID,
		"clear":        next == nil,
	})
	log.Info("Executing query to swap the refresh session")

	hash, expiresAt := sessionArgs(next)
	query := `UPDATE principals SET refresh_token_hash = $2, refresh_token_expires_at = $3 WHERE id = $1 AND refresh_token_hash = $4`
	res, err := r.DB.ExecContext(ctx, query, principalID, hash, expiresAt, expectedHash)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		log.WithError(err).Error("Failed to execute swap refresh session query")
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func sessionArgs(session *model.RefreshSession) (sql.NullString, sql.NullTime) {
	if session == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	return sql.NullString{String: session.TokenHash, Valid: true}, sql.NullTime{Time: session.ExpiresAt, Valid: true}
}
