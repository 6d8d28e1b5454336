package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"tracer-store/internal/models"
	"tracer-store/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, logger: util.GetLogger()}, nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func notificationChannel(sessionID string) string {
	return fmt.Sprintf("notify:%s", sessionID)
}

// PublishNotification publishes a notification change on the session's channel
func (c *Client) PublishNotification(ctx context.Context, event *models.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := c.rdb.Publish(ctx, notificationChannel(event.SessionID), payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// SubscribeNotifications subscribes to a session's notification channel.
// The returned channel is closed once cancel is called.
func (c *Client) SubscribeNotifications(ctx context.Context, sessionID string) (<-chan *models.NotificationEvent, func(), error) {
	pubsub := c.rdb.Subscribe(ctx, notificationChannel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	out := make(chan *models.NotificationEvent, 16)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event models.NotificationEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				c.logger.Warn("Dropping malformed notification",
					zap.String("channel", msg.Channel),
					zap.Error(err))
				continue
			}
			select {
			case out <- &event:
			default:
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, cancel, nil
}
