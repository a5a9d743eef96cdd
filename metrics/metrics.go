// file: metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "noxa"

var (
	// SessionRotations counts refresh attempts by result: rotated, invalid, mismatch, expired, lost.
	SessionRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "session",
		Name:      "rotations_total",
		Help:      "Refresh token rotations by result.",
	}, []string{"result"})

	NotificationsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "dispatched_total",
		Help:      "Notification events processed by scope (targeted or broadcast).",
	}, []string{"scope"})

	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "dropped_total",
		Help:      "Notification events dropped before processing.",
	}, []string{"reason"})

	// PushDeliveries counts individual subscription sends by outcome: sent, gone, failed.
	PushDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "push",
		Name:      "deliveries_total",
		Help:      "Web push sends by outcome.",
	}, []string{"outcome"})

	PushPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "push",
		Name:      "pruned_total",
		Help:      "Push subscriptions removed after the provider reported them gone.",
	})

	RealtimeConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "connections",
		Help:      "Open websocket connections by state.",
	}, []string{"state"})

	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "messages_dropped_total",
		Help:      "Messages dropped because a client's send buffer was full.",
	})
)
