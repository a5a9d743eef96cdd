// file: realtime/hub.go

package realtime

import (
	"encoding/json"
	"sync"

	"noxa-api/logger"
	"noxa-api/metrics"
	"noxa-api/model"
)

// Envelope is the frame written to every socket.
type Envelope struct {
	Event string                  `json:"event"`
	Data  model.NotificationEvent `json:"data"`
}

const notificationEvent = "notification"

// Hub tracks live clients. Authenticated clients are grouped by principal; every client is in the global set.
type Hub struct {
	mu      sync.RWMutex
	groups  map[string]map[*Client]struct{}
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		groups:  make(map[string]map[*Client]struct{}),
		clients: make(map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// An unbound client joins as anonymous.
	c.bind("")

	h.clients[c] = struct{}{}
	if c.principalID != "" {
		group, ok := h.groups[c.principalID]
		if !ok {
			group = make(map[*Client]struct{})
			h.groups[c.principalID] = group
		}
		group[c] = struct{}{}
	}
	metrics.RealtimeConnections.WithLabelValues(string(c.state)).Inc()
}

// Unregister removes c from its group and the global set. It is safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	if group, ok := h.groups[c.principalID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, c.principalID)
		}
	}
	h.mu.Unlock()

	metrics.RealtimeConnections.WithLabelValues(string(c.state)).Dec()
	c.close()
}

func encode(event model.NotificationEvent) ([]byte, error) {
	return json.Marshal(Envelope{Event: notificationEvent, Data: event})
}

// EmitTo sends event to every socket of principalID and returns how many accepted it.
func (h *Hub) EmitTo(principalID string, event model.NotificationEvent) int {
	if principalID == "" {
		return 0
	}
	h.mu.RLock()
	group := h.groups[principalID]
	targets := make([]*Client, 0, len(group))
	for c := range group {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.send(targets, event)
}

// EmitAll sends event to every connected socket, anonymous ones included.
func (h *Hub) EmitAll(event model.NotificationEvent) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.send(targets, event)
}

func (h *Hub) send(targets []*Client, event model.NotificationEvent) int {
	if len(targets) == 0 {
		return 0
	}
	frame, err := encode(event)
	if err != nil {
		logger.Log.WithError(err).WithField("event_id", event.EventID).Error("Failed to encode notification")
		return 0
	}
	delivered := 0
	for _, c := range targets {
		if c.enqueue(frame) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) GroupSize(principalID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[principalID])
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()

	for _, c := range all {
		h.Unregister(c)
	}
}
