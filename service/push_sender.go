// file: service/push_sender.go

package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"noxa-api/model"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// PushSender delivers one payload to one subscription. Implementations return ErrSubscriptionGone
// (possibly wrapped) when the endpoint will never accept deliveries again.
type PushSender interface {
	Send(ctx context.Context, sub model.PushSubscription, payload []byte) error
}

type WebPushConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string
	TTL        int
	Timeout    time.Duration
}

// Configured reports whether every VAPID value is present.
func (c WebPushConfig) Configured() bool {
	return strings.TrimSpace(c.PublicKey) != "" &&
		strings.TrimSpace(c.PrivateKey) != "" &&
		strings.TrimSpace(c.Subject) != ""
}

// WebPushSender sends VAPID-signed, encrypted payloads through the browser push services.
type WebPushSender struct {
	cfg    WebPushConfig
	client *http.Client
}

func NewWebPushSender(cfg WebPushConfig) *WebPushSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebPushSender{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (s *WebPushSender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subject,
		TTL:             s.cfg.TTL,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
	})
	if err != nil {
		return fmt.Errorf("web push send: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: provider returned %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("web push send: provider returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys returns a fresh base64url-encoded key pair for push.vapid_public_key and push.vapid_private_key.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
