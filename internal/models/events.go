package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeItemAdded   = "CART_ITEM_ADDED"
	EventTypeOrderPlaced = "ORDER_PLACED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemAddedEvent published when a product is added to a cart
type ItemAddedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderPlacedEvent published when a checkout is confirmed
type OrderPlacedEvent struct {
	BaseEvent
	OrderID   string          `json:"order_id"`
	SessionID string          `json:"session_id"`
	Items     []OrderItemData `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
