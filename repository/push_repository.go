// file: repository/push_repository.go

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

// UpsertPushSubscription inserts sub or overwrites the keys of the existing row with the same endpoint.
func (r *PrincipalRepository) UpsertPushSubscription(ctx context.Context, principalID string, sub model.PushSubscription) error {
	log := logger.Log.WithFields(logrus.Fields{
		"principal_id": principalID,
		"endpoint":     sub.Endpoint,
	})
	log.Info("Executing query to upsert a push subscription")

	query := `
		INSERT INTO push_subscriptions (principal_id, endpoint, p256dh, auth, expiration_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (principal_id, endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth,
		              expiration_time = EXCLUDED.expiration_time, created_at = EXCLUDED.created_at`

	var expiration sql.NullInt64
	if sub.ExpirationTime != nil {
		expiration = sql.NullInt64{Int64: *sub.ExpirationTime, Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, query, principalID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, expiration, sub.CreatedAt)
	if err != nil {
		err = classify(err)
		if !errors.Is(err, ErrNotFound) {
			log.WithError(err).Error("Failed to execute upsert push subscription query")
		}
		return err
	}
	return nil
}

// ListPushSubscriptions returns the principal's subscriptions, oldest first.
func (r *PrincipalRepository) ListPushSubscriptions(ctx context.Context, principalID string) ([]model.PushSubscription, error) {
	log := logger.Log.WithField("principal_id", principalID)

	query := `
		SELECT endpoint, p256dh, auth, expiration_time, created_at
		FROM push_subscriptions
		WHERE principal_id = $1
		ORDER BY created_at`

	rows, err := r.DB.QueryContext(ctx, query, principalID)
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		log.WithError(err).Error("Failed to execute list push subscriptions query")
		return nil, err
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var (
			s          model.PushSubscription
			expiration sql.NullInt64
		)
		if err := rows.Scan(&s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &expiration, &s.CreatedAt); err != nil {
			log.WithError(err).Error("Failed to scan push subscription row")
			return nil, err
		}
		if expiration.Valid {
			v := expiration.Int64
			s.ExpirationTime = &v
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeletePushSubscriptions removes endpoints in a single statement, or every subscription when endpoints is nil.
func (r *PrincipalRepository) DeletePushSubscriptions(ctx context.Context, principalID string, endpoints []string) (int64, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"principal_id": principalID,
		"endpoints":    len(endpoints),
	})
	log.Info("Executing query to delete push subscriptions")

	var (
		res sql.Result
		err error
	)
	if endpoints == nil {
		res, err = r.DB.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE principal_id = $1`, principalID)
	} else {
		if len(endpoints) == 0 {
			return 0, nil
		}
		res, err = r.DB.ExecContext(ctx,
			`DELETE FROM push_subscriptions WHERE principal_id = $1 AND endpoint = ANY($2)`,
			principalID, pq.Array(endpoints))
	}
	if err != nil {
		err = classify(err)
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		log.WithError(err).Error("Failed to execute delete push subscriptions query")
		return 0, err
	}
	return res.RowsAffected()
}
