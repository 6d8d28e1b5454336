package service

import (
	"context"
	"sync"
	"time"

	"tracer-store/internal/models"

	"go.uber.org/zap"
)

// DefaultNotificationTTL is how long a notification stays visible
const DefaultNotificationTTL = 3 * time.Second

const notificationQueueSize = 32

// NotificationSink receives every change of a session's notification slot
type NotificationSink interface {
	PublishNotification(ctx context.Context, event *models.NotificationEvent) error
}

// Notifier is a single-slot notification with an auto-clear timer.
// A new message replaces the current one and restarts the timer.
type Notifier struct {
	sessionID string
	ttl       time.Duration
	sink      NotificationSink
	logger    *zap.Logger

	mu         sync.Mutex
	current    *models.Notification
	generation uint64
	timer      *time.Timer
	closed     bool

	// events feeds the sink in slot order; nil without a sink
	events chan *models.NotificationEvent
}

// NewNotifier creates a notifier. sink may be nil.
func NewNotifier(sessionID string, ttl time.Duration, sink NotificationSink, logger *zap.Logger) *Notifier {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	n := &Notifier{
		sessionID: sessionID,
		ttl:       ttl,
		sink:      sink,
		logger:    logger,
	}
	if sink != nil {
		n.events = make(chan *models.NotificationEvent, notificationQueueSize)
		go n.run()
	}
	return n
}

// Notify shows message for the notifier's TTL. Ignored after Close.
func (n *Notifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	n.generation++
	gen := n.generation
	n.current = &models.Notification{Message: message}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.ttl, func() { n.expire(gen) })

	n.enqueue(&models.NotificationEvent{
		Type:      models.NotificationShown,
		SessionID: n.sessionID,
		Message:   message,
	})
}

// expire clears the slot only if no newer notification has replaced gen
func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || gen != n.generation {
		return
	}
	n.current = nil
	n.timer = nil

	n.enqueue(&models.NotificationEvent{
		Type:      models.NotificationCleared,
		SessionID: n.sessionID,
	})
}

// enqueue must be called with mu held so sink order matches slot order.
// It never blocks; a full queue drops the event.
func (n *Notifier) enqueue(event *models.NotificationEvent) {
	if n.events == nil {
		return
	}
	select {
	case n.events <- event:
	default:
		n.logger.Warn("Notification queue full, dropping event",
			zap.String("session_id", n.sessionID),
			zap.String("type", event.Type))
	}
}

// run drains the queue into the sink until Close
func (n *Notifier) run() {
	for event := range n.events {
		n.publish(event)
	}
}

func (n *Notifier) publish(event *models.NotificationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := n.sink.PublishNotification(ctx, event); err != nil {
		n.logger.Warn("Failed to publish notification",
			zap.String("session_id", n.sessionID),
			zap.String("type", event.Type),
			zap.Error(err))
	}
}

// Current returns the visible notification, or nil
func (n *Notifier) Current() *models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return nil
	}
	c := *n.current
	return &c
}

// Close stops the pending timer. Events already queued are still delivered;
// the notifier stays silent afterwards.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	if n.events != nil {
		close(n.events)
	}
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}
