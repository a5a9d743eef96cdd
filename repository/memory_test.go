package repository

import (
	"context"
	"fmt"
	"noxa-api/model"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPrincipal(t *testing.T, s *MemoryStore, id string) {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), &model.Principal{
		ID:       id,
		Username: "user_" + id,
		Email:    id + "@example.com",
	}))
}

func TestMemoryStore_CreateRejectsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	seedPrincipal(t, s, "p1")

	err := s.Create(context.Background(), &model.Principal{ID: "p2", Username: "other", Email: "p1@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = s.Create(context.Background(), &model.Principal{ID: "p3", Username: "user_p1", Email: "new@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStore_CompareAndSwapIsExclusive(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedPrincipal(t, s, "p1")
	require.NoError(t, s.SetRefreshSession(ctx, "p1", &model.RefreshSession{TokenHash: "h0", ExpiresAt: time.Now().Add(time.Hour)}))

	const racers = 32
	var (
		wg   sync.WaitGroup
		wins atomic.Int32
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := s.CompareAndSwapRefreshSession(ctx, "p1", "h0", &model.RefreshSession{TokenHash: fmt.Sprintf("h%d", i+1)})
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	p, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.NotEqual(t, "h0", p.RefreshSession.TokenHash)
}

func TestMemoryStore_LookupByRefreshHash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedPrincipal(t, s, "p1")
	require.NoError(t, s.SetRefreshSession(ctx, "p1", &model.RefreshSession{TokenHash: "digest"}))

	p, err := s.GetByRefreshTokenHash(ctx, "digest")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	ok, err := s.CompareAndSwapRefreshSession(ctx, "p1", "digest", nil)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetByRefreshTokenHash(ctx, "digest")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedPrincipal(t, s, "p1")
	require.NoError(t, s.SetRefreshSession(ctx, "p1", &model.RefreshSession{TokenHash: "digest"}))

	p, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.RefreshSession.TokenHash = "tampered"

	again, err := s.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "digest", again.RefreshSession.TokenHash)
}

func TestMemoryStore_PushSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedPrincipal(t, s, "p1")

	sub := model.PushSubscription{Endpoint: "https://push.example/a", Keys: model.PushKeys{P256dh: "k1", Auth: "a1"}}
	require.NoError(t, s.UpsertPushSubscription(ctx, "p1", sub))
	sub.Keys = model.PushKeys{P256dh: "k2", Auth: "a2"}
	require.NoError(t, s.UpsertPushSubscription(ctx, "p1", sub))
	require.NoError(t, s.UpsertPushSubscription(ctx, "p1", model.PushSubscription{Endpoint: "https://push.example/b"}))

	subs, err := s.ListPushSubscriptions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "k2", subs[0].Keys.P256dh)

	n, err := s.DeletePushSubscriptions(ctx, "p1", []string{"https://push.example/a", "https://push.example/missing"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeletePushSubscriptions(ctx, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.ErrorIs(t, s.UpsertPushSubscription(ctx, "ghost", sub), ErrNotFound)
}
