package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tracer-store/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	order_id   UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	item_count INTEGER NOT NULL,
	total      NUMERIC(12, 2) NOT NULL,
	items      JSONB NOT NULL,
	placed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS processed_events (
	event_id     TEXT PRIMARY KEY,
	event_type   TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// ErrReceiptNotFound is returned for an order with no archived receipt
var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptStore archives placed orders in Postgres
type ReceiptStore struct {
	db *sqlx.DB
}

// NewReceiptStore connects to the database and ensures the schema exists
func NewReceiptStore(databaseURL string) (*ReceiptStore, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return newReceiptStore(db)
}

// newReceiptStore owns db from here on and closes it if setup fails
func newReceiptStore(db *sqlx.DB) (*ReceiptStore, error) {
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &ReceiptStore{db: db}, nil
}

// Close closes the database connection
func (s *ReceiptStore) Close() error {
	return s.db.Close()
}

// SaveReceipt inserts a receipt. Saving the same order twice is a no-op.
func (s *ReceiptStore) SaveReceipt(ctx context.Context, r *models.Receipt) error {
	query := `
		INSERT INTO receipts (order_id, session_id, item_count, total, items, placed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		r.OrderID, r.SessionID, r.ItemCount, r.Total, r.Items, r.PlacedAt)
	return err
}

// GetReceipt retrieves a receipt by order ID
func (s *ReceiptStore) GetReceipt(ctx context.Context, orderID string) (*models.Receipt, error) {
	var r models.Receipt
	err := s.db.GetContext(ctx, &r, "SELECT * FROM receipts WHERE order_id = $1", orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, orderID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// IsEventProcessed checks if an event has been processed
func (s *ReceiptStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *ReceiptStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
