package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tracer-store/internal/models"
	"tracer-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSessionClosed   = errors.New("session closed")
)

// ProductCatalog resolves product ids
type ProductCatalog interface {
	GetProduct(id string) (models.Product, error)
}

// EventPublisher receives store events. Publishing failures never block a session.
type EventPublisher interface {
	PublishItemAdded(ctx context.Context, event *models.ItemAddedEvent) error
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// SessionDeps are the collaborators shared by every session
type SessionDeps struct {
	Catalog         ProductCatalog
	Generator       CopyWriter
	Publisher       EventPublisher
	Sink            NotificationSink
	NotificationTTL time.Duration
}

// Session is one shopper's view state: the current view, the cart, the
// notification slot and the mounted product cards. All handlers run under one
// lock and complete before the next one starts.
type Session struct {
	id     string
	deps   SessionDeps
	logger *zap.Logger

	mu       sync.Mutex
	view     models.ViewState
	cart     *Cart
	notifier *Notifier
	cards    map[string]*ProductCard
	lastSeen time.Time
	closed   bool
	done     chan struct{}
}

// NewSession creates a session in the Home view with an empty cart
func NewSession(id string, deps SessionDeps) *Session {
	logger := util.SessionLogger(id)
	return &Session{
		id:       id,
		deps:     deps,
		logger:   logger,
		view:     models.ViewHome,
		cart:     NewCart(),
		notifier: NewNotifier(id, deps.NotificationTTL, deps.Sink, logger),
		cards:    make(map[string]*ProductCard),
		lastSeen: time.Now(),
		done:     make(chan struct{}),
	}
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// AddItem adds one unit of a catalog product and shows a notification
func (s *Session) AddItem(ctx context.Context, productID string) (*models.SessionSnapshot, error) {
	ctx, span := util.StartSpan(ctx, "Session.AddItem")
	defer span.End()

	product, err := s.deps.Catalog.GetProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.cart.Add(product)
	quantity := s.cart.Quantity(product.ID)
	s.notifier.Notify(fmt.Sprintf("Added %s to manifest", product.Name))
	snap := s.snapshotLocked()
	s.mu.Unlock()

	util.CartItemsAddedTotal.Inc()
	s.logger.Info("Item added", zap.String("product_id", product.ID), zap.Int("quantity", quantity))

	s.publishItemAdded(ctx, product.ID, quantity)
	return snap, nil
}

// UpdateQuantity changes an item's quantity by delta. Unknown ids are ignored.
func (s *Session) UpdateQuantity(ctx context.Context, productID string, delta int) (*models.SessionSnapshot, error) {
	_, span := util.StartSpan(ctx, "Session.UpdateQuantity")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.cart.UpdateQuantity(productID, delta) {
		util.CartItemsRemovedTotal.Inc()
		s.logger.Info("Item removed", zap.String("product_id", productID))
	}
	return s.snapshotLocked(), nil
}

// RemoveItem drops an item entirely
func (s *Session) RemoveItem(ctx context.Context, productID string) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	quantity := s.cart.Quantity(productID)
	s.mu.Unlock()

	return s.UpdateQuantity(ctx, productID, -quantity)
}

// Navigate moves between views. Home and Cart are reachable from each other,
// Cart to Checkout is the same as Checkout and Checkout to Home is the same as
// Confirm. Any other target is ignored.
func (s *Session) Navigate(ctx context.Context, target models.ViewState) (*models.SessionSnapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	from := s.view
	s.mu.Unlock()

	switch {
	case from == models.ViewCheckout && target == models.ViewHome:
		return s.Confirm(ctx)
	case from == models.ViewCart && target == models.ViewCheckout:
		return s.Checkout(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.view == target:
	case target == models.ViewHome && s.view == models.ViewCart,
		target == models.ViewCart && s.view == models.ViewHome:
		s.transitionLocked(target)
	default:
		s.logger.Debug("Ignoring navigation",
			zap.String("from", string(s.view)),
			zap.String("to", string(target)))
	}
	return s.snapshotLocked(), nil
}

// Checkout moves from Cart to Checkout. The cart is kept until Confirm.
// Ignored outside the Cart view or with an empty cart.
func (s *Session) Checkout(ctx context.Context) (*models.SessionSnapshot, error) {
	_, span := util.StartSpan(ctx, "Session.Checkout")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.view == models.ViewCart && s.cart.Len() > 0 {
		s.transitionLocked(models.ViewCheckout)
	} else {
		s.logger.Debug("Ignoring checkout",
			zap.String("view", string(s.view)),
			zap.Int("items", s.cart.Len()))
	}
	return s.snapshotLocked(), nil
}

// Confirm completes a checkout: the order is placed, the cart is cleared and
// the session returns Home. Ignored outside the Checkout view.
func (s *Session) Confirm(ctx context.Context) (*models.SessionSnapshot, error) {
	ctx, span := util.StartSpan(ctx, "Session.Confirm")
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if s.view != models.ViewCheckout {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	event := s.orderPlacedEventLocked()
	s.cart.Clear()
	s.transitionLocked(models.ViewHome)
	snap := s.snapshotLocked()
	snap.OrderID = event.OrderID
	s.mu.Unlock()

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", event.OrderID),
		zap.Int("item_count", event.ItemCount),
		zap.String("total", event.Total.StringFixed(2)))

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.PublishOrderPlaced(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
		}
	}
	return snap, nil
}

func (s *Session) orderPlacedEventLocked() *models.OrderPlacedEvent {
	items := s.cart.Items()
	data := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.OrderItemData{
			ProductID: item.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}
	return &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:   uuid.New().String(),
		SessionID: s.id,
		Items:     data,
		ItemCount: s.cart.Count(),
		Total:     s.cart.Total(),
	}
}

func (s *Session) transitionLocked(to models.ViewState) {
	util.ViewTransitionsTotal.WithLabelValues(string(s.view), string(to)).Inc()
	s.logger.Debug("View transition",
		zap.String("from", string(s.view)),
		zap.String("to", string(to)))
	s.view = to
}

func (s *Session) publishItemAdded(ctx context.Context, productID string, quantity int) {
	if s.deps.Publisher == nil {
		return
	}
	event := &models.ItemAddedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemAdded,
			Timestamp: time.Now(),
		},
		SessionID: s.id,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.deps.Publisher.PublishItemAdded(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemAdded event", zap.Error(err))
	}
}

// View returns the current view
func (s *Session) View() models.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Snapshot returns the current view, cart and notification
func (s *Session) Snapshot() *models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() *models.SessionSnapshot {
	return &models.SessionSnapshot{
		SessionID:    s.id,
		View:         s.view,
		Items:        s.cart.Items(),
		Count:        s.cart.Count(),
		Total:        s.cart.Total(),
		Notification: s.notifier.Current(),
	}
}

// Card returns the session's card for productID, mounting it on first use
func (s *Session) Card(productID string) (*ProductCard, error) {
	product, err := s.deps.Catalog.GetProduct(productID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	card, ok := s.cards[productID]
	if !ok {
		card = NewProductCard(product, s.deps.Generator, s.logger)
		s.cards[productID] = card
	}
	return card, nil
}

// UnmountCard tears a card down. A later Card call mounts a fresh instance.
func (s *Session) UnmountCard(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if card, ok := s.cards[productID]; ok {
		card.Close()
		delete(s.cards, productID)
	}
}

// Done is closed when the session is torn down
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Touch records activity for idle eviction
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

// LastSeen returns the time of the last recorded activity
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Close tears the session down: the notification timer is stopped and every
// card is unmounted. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	s.notifier.Close()
	for id, card := range s.cards {
		card.Close()
		delete(s.cards, id)
	}
}
