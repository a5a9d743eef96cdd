package repository

import (
	"context"
	"database/sql"
	"errors"
	"noxa-api/logger"
	"noxa-api/model"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// PrincipalRepository is the postgres implementation of IPrincipalRepository,
// ISessionRepository and IPushSubscriptionRepository.
type PrincipalRepository struct {
	DB *sql.DB
}

func NewPrincipalRepository(db *sql.DB) *PrincipalRepository {
	return &PrincipalRepository{DB: db}
}

const principalColumns = `id, username, email, password_hash, refresh_token_hash, refresh_token_expires_at, created_at`

// Create inserts a new principal. Its ID must already be set.
func (r *PrincipalRepository) Create(ctx context.Context, principal *model.Principal) error {
	log := logger.Log.WithFields(logrus.Fields{
		"principal_id": principal.ID,
		"username":     principal.Username,
	})
	log.Info("Executing query to create a new principal")

	query := `INSERT INTO principals (id, username, email, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.DB.QueryRowContext(ctx, query, principal.ID, principal.Username, principal.Email, principal.PasswordHash).
		Scan(&principal.CreatedAt)
	if err != nil {
		err = classify(err)
		if !errors.Is(err, ErrDuplicate) {
			log.WithError(err).Error("Failed to execute create principal query")
		}
		return err
	}
	return nil
}

func (r *PrincipalRepository) GetByID(ctx context.Context, id string) (*model.Principal, error) {
	return r.getOne(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
}

func (r *PrincipalRepository) GetByEmail(ctx context.Context, email string) (*model.Principal, error) {
	return r.getOne(ctx, `SELECT `+principalColumns+` FROM principals WHERE email = $1`, email)
}

func (r *PrincipalRepository) getOne(ctx context.Context, query string, arg interface{}) (*model.Principal, error) {
	var (
		p         model.Principal
		tokenHash sql.NullString
		expiresAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &tokenHash, &expiresAt, &p.CreatedAt)
	if err != nil {
		err = classify(err)
		if !errors.Is(err, ErrNotFound) {
			logger.Log.WithError(err).Error("Failed to execute get principal query")
		}
		return nil, err
	}
	if tokenHash.Valid && tokenHash.String != "" {
		p.RefreshSession = &model.RefreshSession{TokenHash: tokenHash.String, ExpiresAt: expiresAt.Time}
	}
	return &p, nil
}

// classify maps driver errors onto the package's sentinel errors.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrDuplicate
		case "23503", "22P02": // foreign_key_violation, invalid_text_representation (malformed uuid)
			return ErrNotFound
		}
	}
	return err
}
