// file: repository/repository.go

package repository

import (
	"context"
	"errors"
	"noxa-api/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// IPrincipalRepository defines the contract for principal records.
type IPrincipalRepository interface {
	Create(ctx context.Context, principal *model.Principal) error
	GetByID(ctx context.Context, id string) (*model.Principal, error)
	GetByEmail(ctx context.Context, email string) (*model.Principal, error)
}

// ISessionRepository defines the contract for the single refresh-session slot of a principal.
type ISessionRepository interface {
	GetByID(ctx context.Context, id string) (*model.Principal, error)
	GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*model.Principal, error)
	// SetRefreshSession overwrites the slot unconditionally.
	SetRefreshSession(ctx context.Context, principalID string, session *model.RefreshSession) error
	// CompareAndSwapRefreshSession replaces the slot with next only while it still holds expectedHash.
	// A nil next clears the slot. It reports whether the swap happened.
	CompareAndSwapRefreshSession(ctx context.Context, principalID, expectedHash string, next *model.RefreshSession) (bool, error)
}

// IPushSubscriptionRepository defines the contract for a principal's push subscriptions.
type IPushSubscriptionRepository interface {
	// UpsertPushSubscription replaces the entry with the same endpoint, or appends it.
	UpsertPushSubscription(ctx context.Context, principalID string, sub model.PushSubscription) error
	ListPushSubscriptions(ctx context.Context, principalID string) ([]model.PushSubscription, error)
	// DeletePushSubscriptions removes the given endpoints, or all of them when endpoints is nil.
	DeletePushSubscriptions(ctx context.Context, principalID string, endpoints []string) (int64, error)
}

// Store is the full persistence surface; both PrincipalRepository and MemoryStore implement it.
type Store interface {
	IPrincipalRepository
	ISessionRepository
	IPushSubscriptionRepository
}

var (
	_ Store = (*PrincipalRepository)(nil)
	_ Store = (*MemoryStore)(nil)
)
