package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products in the catalog
type Category string

// Product categories
const (
	CategoryApparel     Category = "Apparel"
	CategoryAccessories Category = "Accessories"
	CategoryStationery  Category = "Stationery"
)

// ParseCategory matches a category name case-insensitively
func ParseCategory(s string) (Category, error) {
	for _, c := range []Category{CategoryApparel, CategoryAccessories, CategoryStationery} {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Product represents a product in the catalog
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Category        Category        `json:"category"`
	Image           string          `json:"image"`
	Description     string          `json:"description"`
	AIPromptContext string          `json:"aiPromptContext"`
}

// CartItem is a product with a positive quantity
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price * quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ViewState is the top-level screen of a session
type ViewState string

// View states
const (
	ViewHome     ViewState = "HOME"
	ViewCart     ViewState = "CART"
	ViewCheckout ViewState = "CHECKOUT"
)

// ParseViewState accepts the wire names case-insensitively
func ParseViewState(s string) (ViewState, error) {
	switch v := ViewState(strings.ToUpper(strings.TrimSpace(s))); v {
	case ViewHome, ViewCart, ViewCheckout:
		return v, nil
	}
	return "", fmt.Errorf("unknown view: %q", s)
}

// AIGeneratedContent is marketing copy produced for one product card
type AIGeneratedContent struct {
	Slogan              string `json:"slogan"`
	ExtendedDescription string `json:"extendedDescription"`
}

// Notification is the transient message shown after a cart action
type Notification struct {
	Message string `json:"message"`
}

// Notification event types
const (
	NotificationShown   = "notification"
	NotificationCleared = "cleared"
)

// NotificationEvent is pushed to clients when the notification slot changes
type NotificationEvent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Message   string `json:"message,omitempty"`
}

// Card statuses
const (
	CardStatusIdle    = "idle"
	CardStatusLoading = "loading"
	CardStatusReady   = "ready"
)

// CardState is what the presentation layer needs to render a product card
type CardState struct {
	ProductID string              `json:"product_id"`
	Status    string              `json:"status"`
	Hovered   bool                `json:"hovered"`
	Content   *AIGeneratedContent `json:"content,omitempty"`
}

// SessionSnapshot is a point-in-time read of a session
type SessionSnapshot struct {
	SessionID    string          `json:"session_id"`
	View         ViewState       `json:"view"`
	Items        []CartItem      `json:"items"`
	Count        int             `json:"count"`
	Total        decimal.Decimal `json:"total"`
	Notification *Notification   `json:"notification,omitempty"`
	// OrderID is set only on the snapshot returned by a confirmation
	OrderID string `json:"order_id,omitempty"`
}

// Receipt is the archived record of a placed order
type Receipt struct {
	OrderID   string          `db:"order_id" json:"order_id"`
	SessionID string          `db:"session_id" json:"session_id"`
	ItemCount int             `db:"item_count" json:"item_count"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Items     []byte          `db:"items" json:"-"`
	PlacedAt  time.Time       `db:"placed_at" json:"placed_at"`
}

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
