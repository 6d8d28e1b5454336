package service

import (
	"context"
	"sync"

	"tracer-store/internal/models"
)

// LocalHub fans notification events out to in-process subscribers.
// It is used when Redis pub/sub is not configured.
type LocalHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan *models.NotificationEvent
}

// NewLocalHub creates an empty hub
func NewLocalHub() *LocalHub {
	return &LocalHub{subs: make(map[string]map[int]chan *models.NotificationEvent)}
}

// PublishNotification delivers event to the session's subscribers.
// Slow subscribers miss events rather than block the notifier.
func (h *LocalHub) PublishNotification(_ context.Context, event *models.NotificationEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// SubscribeNotifications returns a channel of events for sessionID and a
// function that ends the subscription and closes the channel.
func (h *LocalHub) SubscribeNotifications(_ context.Context, sessionID string) (<-chan *models.NotificationEvent, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan *models.NotificationEvent, 16)
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan *models.NotificationEvent)
	}
	h.subs[sessionID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[sessionID], id)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}
