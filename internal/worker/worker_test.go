package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tracer-store/internal/broker"
	"tracer-store/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryArchive struct {
	receipts  map[string]*models.Receipt
	processed map[string]bool
	saveErr   error
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{
		receipts:  make(map[string]*models.Receipt),
		processed: make(map[string]bool),
	}
}

func (a *memoryArchive) SaveReceipt(ctx context.Context, r *models.Receipt) error {
	if a.saveErr != nil {
		return a.saveErr
	}
	a.receipts[r.OrderID] = r
	return nil
}

func (a *memoryArchive) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return a.processed[eventID], nil
}

func (a *memoryArchive) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	a.processed[eventID] = true
	return nil
}

func newTestWorker(archive ReceiptArchive) *ReceiptWorker {
	w := &ReceiptWorker{archive: archive, eventHandler: broker.NewEventHandler(), logger: zap.NewNop()}
	w.eventHandler.OnOrderPlaced(w.HandleOrderPlaced)
	return w
}

func event() *models.OrderPlacedEvent {
	return &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		},
		OrderID:   "order-1",
		SessionID: "s1",
		Items: []models.OrderItemData{
			{ProductID: "p3", Name: "Mug", Quantity: 1, UnitPrice: decimal.RequireFromString("15.00")},
		},
		ItemCount: 1,
		Total:     decimal.RequireFromString("15.00"),
	}
}

func TestHandleOrderPlacedArchivesOnce(t *testing.T) {
	archive := newMemoryArchive()
	w := newTestWorker(archive)
	ctx := context.Background()

	require.NoError(t, w.HandleOrderPlaced(ctx, event()))
	require.Contains(t, archive.receipts, "order-1")

	r := archive.receipts["order-1"]
	assert.Equal(t, "s1", r.SessionID)
	assert.True(t, r.Total.Equal(decimal.RequireFromString("15")))

	var items []models.OrderItemData
	require.NoError(t, json.Unmarshal(r.Items, &items))
	assert.Equal(t, "p3", items[0].ProductID)

	delete(archive.receipts, "order-1")
	require.NoError(t, w.HandleOrderPlaced(ctx, event()))
	assert.NotContains(t, archive.receipts, "order-1", "redelivery skipped")
}

func TestHandleOrderPlacedSaveError(t *testing.T) {
	archive := newMemoryArchive()
	archive.saveErr = errors.New("db down")
	w := newTestWorker(archive)

	err := w.HandleOrderPlaced(context.Background(), event())
	require.Error(t, err)
	assert.False(t, archive.processed["evt-1"])
}

type countingEvicter struct{ n atomic.Int32 }

func (c *countingEvicter) EvictIdle() int {
	c.n.Add(1)
	return 0
}

func TestSessionJanitorRunsUntilCancelled(t *testing.T) {
	ev := &countingEvicter{}
	j := NewSessionJanitor(ev, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- j.Start(ctx) }()

	assert.Eventually(t, func() bool { return ev.n.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
