package service

import (
	"context"
	"sync"

	"tracer-store/internal/models"
	"tracer-store/internal/util"

	"go.uber.org/zap"
)

// ProductCard is one mounted product card. It fetches marketing copy at most
// once, on the first hover or focus, and keeps the first result for its lifetime.
type ProductCard struct {
	product   models.Product
	generator CopyWriter
	logger    *zap.Logger

	mu      sync.Mutex
	active  bool
	loading bool
	content *models.AIGeneratedContent
	closed  bool
	done    chan struct{}
}

// NewProductCard mounts a card for product
func NewProductCard(product models.Product, generator CopyWriter, logger *zap.Logger) *ProductCard {
	return &ProductCard{
		product:   product,
		generator: generator,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Product returns the card's product
func (c *ProductCard) Product() models.Product {
	return c.product
}

// Hover records pointer entry
func (c *ProductCard) Hover() models.CardState {
	return c.enter()
}

// Focus records keyboard focus entry
func (c *ProductCard) Focus() models.CardState {
	return c.enter()
}

func (c *ProductCard) enter() models.CardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.stateLocked()
	}
	c.active = true
	if c.content == nil && !c.loading {
		c.loading = true
		go c.fetch()
	}
	return c.stateLocked()
}

// fetch runs without the card lock held. The request is never aborted;
// a result arriving after Close is dropped.
func (c *ProductCard) fetch() {
	defer close(c.done)

	content := c.generator.Generate(context.Background(), c.product.Name, c.product.AIPromptContext)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		util.CopyResultsDiscardedTotal.Inc()
		c.logger.Debug("Discarding copy for unmounted card", zap.String("product_id", c.product.ID))
		return
	}
	c.content = &content
	c.loading = false
}

// Leave records pointer exit. An in-flight generation keeps running.
func (c *ProductCard) Leave() models.CardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active = false
	return c.stateLocked()
}

// State returns the render state of the card
func (c *ProductCard) State() models.CardState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stateLocked()
}

func (c *ProductCard) stateLocked() models.CardState {
	state := models.CardState{
		ProductID: c.product.ID,
		Status:    models.CardStatusIdle,
		Hovered:   c.active,
	}
	switch {
	case c.content != nil:
		content := *c.content
		state.Status = models.CardStatusReady
		state.Content = &content
	case c.loading && !c.closed:
		state.Status = models.CardStatusLoading
	}
	return state
}

// Wait blocks until the card's generation has finished or ctx is done.
// It returns nil at once if no generation was ever started.
func (c *ProductCard) Wait(ctx context.Context) error {
	c.mu.Lock()
	started := c.loading || c.content != nil
	c.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unmounts the card
func (c *ProductCard) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.active = false
}
