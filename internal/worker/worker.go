package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tracer-store/internal/broker"
	"tracer-store/internal/models"
	"tracer-store/internal/util"

	"go.uber.org/zap"
)

// ReceiptArchive is where confirmed orders end up
type ReceiptArchive interface {
	SaveReceipt(ctx context.Context, r *models.Receipt) error
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// ReceiptWorker consumes OrderPlaced events and archives a receipt for each
type ReceiptWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	archive      ReceiptArchive
	logger       *zap.Logger
}

// NewReceiptWorker creates a new receipt worker
func NewReceiptWorker(consumer *broker.Consumer, archive ReceiptArchive) *ReceiptWorker {
	w := &ReceiptWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		archive:      archive,
		logger:       util.GetLogger(),
	}
	w.eventHandler.OnOrderPlaced(w.HandleOrderPlaced)
	return w
}

// Start starts the worker
func (w *ReceiptWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting receipt worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReceiptWorker) Stop() error {
	w.logger.Info("Stopping receipt worker")
	return w.consumer.Close()
}

// HandleOrderPlaced archives a receipt. Redelivered events are skipped.
func (w *ReceiptWorker) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "ReceiptWorker.HandleOrderPlaced")
	defer span.End()

	processed, err := w.archive.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	items, err := json.Marshal(event.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt items: %w", err)
	}

	receipt := &models.Receipt{
		OrderID:   event.OrderID,
		SessionID: event.SessionID,
		ItemCount: event.ItemCount,
		Total:     event.Total,
		Items:     items,
		PlacedAt:  event.Timestamp,
	}
	if err := w.archive.SaveReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("failed to save receipt: %w", err)
	}

	if err := w.archive.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		w.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	util.ReceiptsArchivedTotal.Inc()
	w.logger.Info("Receipt archived",
		zap.String("order_id", event.OrderID),
		zap.String("total", event.Total.StringFixed(2)))
	return nil
}

// IdleEvicter is implemented by the session manager
type IdleEvicter interface {
	EvictIdle() int
}

// SessionJanitor periodically evicts idle sessions
type SessionJanitor struct {
	sessions IdleEvicter
	interval time.Duration
	logger   *zap.Logger
}

// NewSessionJanitor creates a janitor running every interval
func NewSessionJanitor(sessions IdleEvicter, interval time.Duration) *SessionJanitor {
	return &SessionJanitor{
		sessions: sessions,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs until ctx is cancelled
func (j *SessionJanitor) Start(ctx context.Context) error {
	j.logger.Info("Starting session janitor", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("Stopping session janitor")
			return ctx.Err()
		case <-ticker.C:
			j.sessions.EvictIdle()
		}
	}
}
