// service/push_service_test.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"noxa-api/model"
	"noxa-api/repository"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records payloads and answers per endpoint.
type fakeSender struct {
	mu       sync.Mutex
	results  map[string]error
	payloads map[string][]byte
	block    map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		results:  make(map[string]error),
		payloads: make(map[string][]byte),
		block:    make(map[string]bool),
	}
}

func (f *fakeSender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	f.mu.Lock()
	f.payloads[sub.Endpoint] = payload
	err := f.results[sub.Endpoint]
	block := f.block[sub.Endpoint]
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (f *fakeSender) sent(endpoint string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payloads[endpoint]
}

func newPushFixture(t *testing.T, sender PushSender) (*PushService, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), &model.Principal{ID: "p1", Username: "ada", Email: "ada@example.com"}))
	svc := NewPushService(store, sender, PushOptions{
		PublicKey:   "public-key",
		Configured:  true,
		SendTimeout: 200 * time.Millisecond,
		DeepLinkURL: "/dashboard",
	})
	return svc, store
}

func subscription(endpoint string) model.PushSubscription {
	return model.PushSubscription{Endpoint: endpoint, Keys: model.PushKeys{P256dh: "p256dh", Auth: "auth"}}
}

func TestPushService_SubscribeValidates(t *testing.T) {
	ctx := context.Background()
	svc, store := newPushFixture(t, newFakeSender())

	_, err := svc.Subscribe(ctx, "p1", model.PushSubscription{Endpoint: "   ", Keys: model.PushKeys{P256dh: "k", Auth: "a"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Subscribe(ctx, "p1", model.PushSubscription{Endpoint: "https://push.example/1", Keys: model.PushKeys{P256dh: "k"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	subs, err := store.ListPushSubscriptions(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, subs, "rejected payloads must not be stored")

	_, err = svc.Subscribe(ctx, "ghost", subscription("https://push.example/1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPushService_ResubscribeOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPushFixture(t, newFakeSender())

	_, err := svc.Subscribe(ctx, "p1", subscription(" https://push.example/1 "))
	require.NoError(t, err)
	updated := subscription("https://push.example/1")
	updated.Keys.Auth = "new-auth"
	_, err = svc.Subscribe(ctx, "p1", updated)
	require.NoError(t, err)

	subs, err := svc.Subscriptions(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "new-auth", subs[0].Keys.Auth)
}

func TestPushService_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPushFixture(t, newFakeSender())
	for _, e := range []string{"https://push.example/1", "https://push.example/2", "https://push.example/3"} {
		_, err := svc.Subscribe(ctx, "p1", subscription(e))
		require.NoError(t, err)
	}

	require.NoError(t, svc.Unsubscribe(ctx, "p1", "https://push.example/2"))
	subs, err := svc.Subscriptions(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	require.NoError(t, svc.Unsubscribe(ctx, "p1", ""))
	subs, err = svc.Subscriptions(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, subs)

	assert.ErrorIs(t, svc.Unsubscribe(ctx, "ghost", ""), ErrNotFound)
}

func TestPushService_DeliverPrunesOnlyGone(t *testing.T) {
	ctx := context.Background()
	sender := newFakeSender()
	svc, _ := newPushFixture(t, sender)

	endpoints := []string{"https://push.example/ok", "https://push.example/gone", "https://push.example/flaky", "https://push.example/slow"}
	for _, e := range endpoints {
		_, err := svc.Subscribe(ctx, "p1", subscription(e))
		require.NoError(t, err)
	}
	sender.results["https://push.example/gone"] = fmt.Errorf("%w: provider returned 410", ErrSubscriptionGone)
	sender.results["https://push.example/flaky"] = errors.New("provider returned 503")
	sender.block["https://push.example/slow"] = true

	report, err := svc.Deliver(ctx, "p1", model.NotificationEvent{
		EventID: "e1",
		Type:    model.EventTaskCreated,
		Item:    &model.ItemSummary{ID: "t1", Title: "Write report"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, report.Gone)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, int64(1), report.Pruned)

	subs, err := svc.Subscriptions(ctx, "p1")
	require.NoError(t, err)
	remaining := make([]string, 0, len(subs))
	for _, s := range subs {
		remaining = append(remaining, s.Endpoint)
	}
	assert.ElementsMatch(t, []string{"https://push.example/ok", "https://push.example/flaky", "https://push.example/slow"}, remaining)

	var msg model.PushMessage
	require.NoError(t, json.Unmarshal(sender.sent("https://push.example/ok"), &msg))
	assert.Equal(t, "Task Created", msg.Title)
	assert.Equal(t, "Created: Write report", msg.Body)
	assert.Equal(t, "e1", msg.Data.EventID)
	require.NotNil(t, msg.Data.ItemID)
	assert.Equal(t, "t1", *msg.Data.ItemID)
}

func TestPushService_DeliverSendsIndependently(t *testing.T) {
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)

	ctx := context.Background()
	sender := newFakeSender()
	svc, _ := newPushFixture(t, sender)

	const hanging = 5
	for i := 0; i < hanging; i++ {
		endpoint := fmt.Sprintf("https://push.example/hang-%d", i)
		_, err := svc.Subscribe(ctx, "p1", subscription(endpoint))
		require.NoError(t, err)
		sender.block[endpoint] = true
	}
	_, err := svc.Subscribe(ctx, "p1", subscription("https://push.example/healthy"))
	require.NoError(t, err)

	start := time.Now()
	report, err := svc.Deliver(ctx, "p1", model.NotificationEvent{EventID: "e1", Type: model.EventTaskCreated})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, hanging, report.Failed)
	assert.NotEmpty(t, sender.sent("https://push.example/healthy"))
	// SendTimeout is 200ms; sequential timeouts would take a full second.
	assert.Less(t, elapsed, 600*time.Millisecond, "hanging endpoints must time out together")
}

func TestPushService_DeliverNoops(t *testing.T) {
	ctx := context.Background()

	t.Run("not configured", func(t *testing.T) {
		sender := newFakeSender()
		store := repository.NewMemoryStore()
		require.NoError(t, store.Create(ctx, &model.Principal{ID: "p1", Username: "ada", Email: "ada@example.com"}))
		svc := NewPushService(store, sender, PushOptions{})
		_, err := svc.Subscribe(ctx, "p1", subscription("https://push.example/1"))
		require.NoError(t, err)

		report, err := svc.Deliver(ctx, "p1", model.NotificationEvent{Type: model.EventNoteCreated})
		require.NoError(t, err)
		assert.Equal(t, DeliveryReport{}, report)
		assert.Nil(t, sender.sent("https://push.example/1"))
	})

	t.Run("no subscriptions", func(t *testing.T) {
		svc, _ := newPushFixture(t, newFakeSender())
		report, err := svc.Deliver(ctx, "p1", model.NotificationEvent{Type: model.EventNoteCreated})
		require.NoError(t, err)
		assert.Equal(t, DeliveryReport{}, report)
	})

	t.Run("unknown principal", func(t *testing.T) {
		svc, _ := newPushFixture(t, newFakeSender())
		_, err := svc.Deliver(ctx, "ghost", model.NotificationEvent{Type: model.EventNoteCreated})
		assert.NoError(t, err)
	})
}

func TestPushService_PublicKey(t *testing.T) {
	svc := NewPushService(repository.NewMemoryStore(), nil, PushOptions{PublicKey: " key "})
	assert.Equal(t, "key", svc.PublicKey())
	assert.False(t, svc.Configured())
}
