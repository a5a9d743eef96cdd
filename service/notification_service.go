// file: service/notification_service.go

package service

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"noxa-api/logger"
	"noxa-api/metrics"
	"noxa-api/model"

	"github.com/sirupsen/logrus"
)

// Broadcaster is the live-socket side of fanout.
type Broadcaster interface {
	EmitTo(principalID string, event model.NotificationEvent) int
	EmitAll(event model.NotificationEvent) int
}

// PushDeliverer is the background push side of fanout.
type PushDeliverer interface {
	Deliver(ctx context.Context, principalID string, event model.NotificationEvent) (DeliveryReport, error)
}

// Notifier is what record-owning code calls after a successful mutation. An empty principalID broadcasts.
type Notifier interface {
	Dispatch(event model.NotificationEvent, principalID string)
}

type NotificationOptions struct {
	Workers         int
	QueueSize       int
	DeliveryTimeout time.Duration
}

type dispatchJob struct {
	event       model.NotificationEvent
	principalID string
}

// NotificationService routes events to live sockets and, for targeted events, to push.
// Dispatch hands off to a bounded queue drained by a fixed worker pool; it never blocks the caller.
type NotificationService struct {
	hub  Broadcaster
	push PushDeliverer
	opts NotificationOptions

	queue chan dispatchJob
	seq   atomic.Uint64
	now   func() time.Time

	mu       sync.RWMutex
	closed   bool
	started  bool
	drained  chan struct{}
	workers  sync.WaitGroup
	inflight sync.WaitGroup
}

func NewNotificationService(hub Broadcaster, push PushDeliverer, opts NotificationOptions) *NotificationService {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1024
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 30 * time.Second
	}
	return &NotificationService{
		hub:   hub,
		push:  push,
		opts:  opts,
		queue: make(chan dispatchJob, opts.QueueSize),
		now:   time.Now,
	}
}

// Start launches the worker pool. Calling it more than once is a no-op.
func (s *NotificationService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	for i := 0; i < s.opts.Workers; i++ {
		s.workers.Add(1)
		go s.work()
	}
}

// NextEventID returns "<unix millis>-<sequence>", unique within this process.
func (s *NotificationService) NextEventID() string {
	return strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + strconv.FormatUint(s.seq.Add(1), 10)
}

func (s *NotificationService) Dispatch(event model.NotificationEvent, principalID string) {
	if event.EventID == "" {
		event.EventID = s.NextEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}

	log := logger.Log.WithFields(logrus.Fields{
		"event_id":     event.EventID,
		"event_type":   event.Type,
		"principal_id": principalID,
	})

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		log.Warn("Notification dispatched after shutdown, dropping")
		metrics.NotificationsDropped.WithLabelValues("closed").Inc()
		return
	}

	select {
	case s.queue <- dispatchJob{event: event, principalID: principalID}:
	default:
		log.Warn("Notification queue full, dropping event")
		metrics.NotificationsDropped.WithLabelValues("queue_full").Inc()
	}
}

func (s *NotificationService) work() {
	defer s.workers.Done()
	for job := range s.queue {
		s.route(job)
	}
}

func (s *NotificationService) route(job dispatchJob) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("event_id", job.event.EventID).Errorf("Notification routing panicked: %v", r)
		}
	}()

	if job.principalID == "" {
		n := s.hub.EmitAll(job.event)
		metrics.NotificationsDispatched.WithLabelValues("broadcast").Inc()
		logger.Log.WithFields(logrus.Fields{"event_id": job.event.EventID, "clients": n}).Debug("Broadcast notification")
		return
	}

	s.hub.EmitTo(job.principalID, job.event)
	metrics.NotificationsDispatched.WithLabelValues("targeted").Inc()

	if s.push == nil {
		return
	}
	s.inflight.Add(1)
	go s.deliver(job)
}

func (s *NotificationService) deliver(job dispatchJob) {
	defer s.inflight.Done()
	log := logger.Log.WithFields(logrus.Fields{
		"event_id":     job.event.EventID,
		"principal_id": job.principalID,
	})
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Push delivery panicked: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.DeliveryTimeout)
	defer cancel()

	report, err := s.push.Deliver(ctx, job.principalID, job.event)
	if err != nil {
		log.WithError(err).Warn("Push delivery failed")
		return
	}
	if report.Sent+report.Gone+report.Failed > 0 {
		log.WithFields(logrus.Fields{
			"sent":   report.Sent,
			"gone":   report.Gone,
			"failed": report.Failed,
		}).Debug("Push delivery finished")
	}
}

// Close stops intake, lets the workers drain the queue and waits for in-flight push deliveries.
// It returns ctx.Err() if ctx ends first.
func (s *NotificationService) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.drained = make(chan struct{})
		close(s.queue)
		go s.drain(s.started)
	}
	drained := s.drained
	s.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *NotificationService) drain(started bool) {
	if !started {
		for job := range s.queue {
			s.route(job)
		}
	}
	s.workers.Wait()
	s.inflight.Wait()
	close(s.drained)
}
