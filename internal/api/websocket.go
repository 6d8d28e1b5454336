package api

import (
	"context"
	"net/http"
	"time"

	"tracer-store/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// notificationStream pushes the session's notification slot to the client.
// The notification visible at subscribe time, if any, is sent first. The
// stream ends with a close frame when the session is closed or evicted.
func (h *Handler) notificationStream(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe, err := h.subscriber.SubscribeNotifications(ctx, s.ID())
	if err != nil {
		h.logger.Error("Failed to subscribe to notifications", zap.String("session_id", s.ID()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Notifications unavailable",
			"details": err.Error(),
		})
		return
	}
	defer unsubscribe()
	current := s.Snapshot().Notification

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The client only sends control frames; reading surfaces its close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if current != nil {
		if err := writeEvent(conn, &models.NotificationEvent{
			Type:      models.NotificationShown,
			SessionID: s.ID(),
			Message:   current.Message,
		}); err != nil {
			return
		}
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			writeClose(conn, "session closed")
			return
		case event, ok := <-events:
			if !ok {
				writeClose(conn, "")
				return
			}
			if err := writeEvent(conn, event); err != nil {
				h.logger.Debug("WebSocket write failed", zap.String("session_id", s.ID()), zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event *models.NotificationEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(event)
}

func writeClose(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(wsWriteWait))
}
