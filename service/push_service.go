// file: service/push_service.go

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"noxa-api/logger"
	"noxa-api/metrics"
	"noxa-api/model"
	"noxa-api/repository"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"
)

type PushOptions struct {
	// PublicKey is handed to browsers so they can subscribe against our VAPID identity.
	PublicKey   string
	Configured  bool
	SendTimeout time.Duration
	DeepLinkURL string
}

// DeliveryReport summarises one Deliver call.
type DeliveryReport struct {
	Sent   int
	Gone   int
	Failed int
	Pruned int64
}

// PushStore is the persistence PushService needs: the subscriptions plus a principal lookup.
type PushStore interface {
	repository.IPushSubscriptionRepository
	GetByID(ctx context.Context, id string) (*model.Principal, error)
}

// PushService manages push subscriptions and fans events out to them.
type PushService struct {
	repo   PushStore
	sender PushSender
	opts   PushOptions
}

func NewPushService(repo PushStore, sender PushSender, opts PushOptions) *PushService {
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &PushService{repo: repo, sender: sender, opts: opts}
}

func (s *PushService) Configured() bool {
	return s.opts.Configured && s.sender != nil
}

func (s *PushService) PublicKey() string {
	return strings.TrimSpace(s.opts.PublicKey)
}

// Subscribe validates and stores sub, replacing any entry with the same endpoint.
func (s *PushService) Subscribe(ctx context.Context, principalID string, sub model.PushSubscription) (*model.PushSubscription, error) {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	sub.Keys.P256dh = strings.TrimSpace(sub.Keys.P256dh)
	sub.Keys.Auth = strings.TrimSpace(sub.Keys.Auth)
	if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, fmt.Errorf("%w: invalid push subscription payload", ErrInvalidInput)
	}
	sub.CreatedAt = time.Now().UTC()

	if err := s.repo.UpsertPushSubscription(ctx, principalID, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return &sub, nil
}

// Unsubscribe removes one endpoint, or every subscription when endpoint is empty.
func (s *PushService) Unsubscribe(ctx context.Context, principalID, endpoint string) error {
	if _, err := s.repo.GetByID(ctx, principalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: user", ErrNotFound)
		}
		return err
	}

	var endpoints []string
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		endpoints = []string{endpoint}
	}
	_, err := s.repo.DeletePushSubscriptions(ctx, principalID, endpoints)
	return err
}

func (s *PushService) Subscriptions(ctx context.Context, principalID string) ([]model.PushSubscription, error) {
	return s.repo.ListPushSubscriptions(ctx, principalID)
}

type sendResult struct {
	endpoint string
	err      error
}

// Deliver sends event to every subscription of the principal concurrently. Gone endpoints are
// pruned in one batch; any other failure is logged and the subscription kept.
func (s *PushService) Deliver(ctx context.Context, principalID string, event model.NotificationEvent) (DeliveryReport, error) {
	var report DeliveryReport
	if !s.Configured() {
		return report, nil
	}

	subs, err := s.repo.ListPushSubscriptions(ctx, principalID)
	if err != nil {
		return report, err
	}
	if len(subs) == 0 {
		return report, nil
	}

	payload, err := json.Marshal(RenderPushMessage(event, s.opts.DeepLinkURL))
	if err != nil {
		return report, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"principal_id": principalID,
		"event_id":     event.EventID,
	})

	// One goroutine per subscription, so a hanging endpoint never delays the others.
	fanout := iter.Mapper[model.PushSubscription, sendResult]{MaxGoroutines: len(subs)}
	results := fanout.Map(subs, func(sub *model.PushSubscription) (res sendResult) {
		res.endpoint = sub.Endpoint
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("push sender panicked: %v", r)
			}
		}()
		sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
		defer cancel()
		res.err = s.sender.Send(sendCtx, *sub, payload)
		return res
	})

	var gone []string
	for _, res := range results {
		switch {
		case res.err == nil:
			report.Sent++
			metrics.PushDeliveries.WithLabelValues("sent").Inc()
		case errors.Is(res.err, ErrSubscriptionGone):
			report.Gone++
			gone = append(gone, res.endpoint)
			metrics.PushDeliveries.WithLabelValues("gone").Inc()
		default:
			report.Failed++
			metrics.PushDeliveries.WithLabelValues("failed").Inc()
			log.WithError(res.err).WithField("endpoint", res.endpoint).Warn("Web push send failed")
		}
	}

	if len(gone) > 0 {
		pruneCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		n, err := s.repo.DeletePushSubscriptions(pruneCtx, principalID, gone)
		if err != nil {
			log.WithError(err).Error("Failed to prune gone push subscriptions")
			return report, err
		}
		report.Pruned = n
		metrics.PushPruned.Add(float64(n))
		log.WithField("pruned", n).Info("Pruned gone push subscriptions")
	}

	return report, nil
}
