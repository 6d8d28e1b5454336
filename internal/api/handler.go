package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tracer-store/internal/models"
	"tracer-store/internal/service"
	"tracer-store/internal/store"
	"tracer-store/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxCardWait = 30 * time.Second

// NotificationSubscriber streams a session's notification changes
type NotificationSubscriber interface {
	SubscribeNotifications(ctx context.Context, sessionID string) (<-chan *models.NotificationEvent, func(), error)
}

// ReceiptReader looks up archived orders
type ReceiptReader interface {
	GetReceipt(ctx context.Context, orderID string) (*models.Receipt, error)
}

// Handler contains HTTP handlers
type Handler struct {
	catalog    *store.Catalog
	sessions   *service.SessionManager
	subscriber NotificationSubscriber
	receipts   ReceiptReader
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler. receipts may be nil when the
// archive is not configured.
func NewHandler(catalog *store.Catalog, sessions *service.SessionManager, subscriber NotificationSubscriber, receipts ReceiptReader) *Handler {
	return &Handler{
		catalog:    catalog,
		sessions:   sessions,
		subscriber: subscriber,
		receipts:   receipts,
		logger:     util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(loggerMiddleware(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		v1.GET("/receipts/:orderId", h.getReceipt)

		v1.POST("/sessions", h.createSession)

		s := v1.Group("/sessions/:sid")
		{
			s.GET("", h.getSession)
			s.DELETE("", h.closeSession)

			s.POST("/cart/items", h.addItem)
			s.PATCH("/cart/items/:id", h.updateQuantity)
			s.DELETE("/cart/items/:id", h.removeItem)

			s.POST("/navigate", h.navigate)
			s.POST("/checkout", h.checkout)
			s.POST("/confirm", h.confirm)

			s.GET("/cards/:productId", h.getCard)
			s.DELETE("/cards/:productId", h.unmountCard)
			s.POST("/cards/:productId/hover", h.hoverCard)
			s.POST("/cards/:productId/focus", h.focusCard)
			s.POST("/cards/:productId/leave", h.leaveCard)

			s.GET("/notifications/ws", h.notificationStream)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"products": h.catalog.Len(),
		"sessions": h.sessions.Len(),
		"time":     time.Now().Unix(),
	})
}

// listProducts returns the catalog, optionally filtered by category
func (h *Handler) listProducts(c *gin.Context) {
	products := h.catalog.GetProducts()

	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid category",
				"details": err.Error(),
			})
			return
		}
		products = h.catalog.GetProductsByCategory(category)
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// getProduct returns one product
func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, product)
}

// getReceipt returns an archived order
func (h *Handler) getReceipt(c *gin.Context) {
	if h.receipts == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Receipt archive disabled",
			"details": "no database configured",
		})
		return
	}

	receipt, err := h.receipts.GetReceipt(c.Request.Context(), c.Param("orderId"))
	if errors.Is(err, store.ErrReceiptNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Receipt not found",
			"details": err.Error(),
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get receipt", zap.String("order_id", c.Param("orderId")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get receipt",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   receipt.OrderID,
		"session_id": receipt.SessionID,
		"item_count": receipt.ItemCount,
		"total":      receipt.Total,
		"items":      json.RawMessage(receipt.Items),
		"placed_at":  receipt.PlacedAt,
	})
}

// createSession starts a new shopper session
func (h *Handler) createSession(c *gin.Context) {
	s := h.sessions.Create()
	c.JSON(http.StatusCreated, s.Snapshot())
}

// getSession returns the session snapshot
func (h *Handler) getSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// closeSession tears a session down
func (h *Handler) closeSession(c *gin.Context) {
	if err := h.sessions.Close(c.Param("sid")); err != nil {
		h.sessionError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// addItem adds one unit of a product to the cart
func (h *Handler) addItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	snap, err := s.AddItem(c.Request.Context(), req.ProductID)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type updateQuantityRequest struct {
	Delta *int `json:"delta" binding:"required"`
}

// updateQuantity changes an item's quantity by delta
func (h *Handler) updateQuantity(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	snap, err := s.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Delta)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// removeItem drops an item from the cart
func (h *Handler) removeItem(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	snap, err := s.RemoveItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type navigateRequest struct {
	View string `json:"view" binding:"required"`
}

// navigate switches the session's view
func (h *Handler) navigate(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req navigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	view, err := models.ParseViewState(req.View)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid view",
			"details": err.Error(),
		})
		return
	}

	snap, err := s.Navigate(c.Request.Context(), view)
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// checkout moves from the cart to the checkout view
func (h *Handler) checkout(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	snap, err := s.Checkout(c.Request.Context())
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// confirm places the order and returns to the store
func (h *Handler) confirm(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	snap, err := s.Confirm(c.Request.Context())
	if err != nil {
		h.sessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// getCard returns a card's render state. With ?wait=<duration> it blocks
// until an in-flight generation finishes or the wait elapses.
func (h *Handler) getCard(c *gin.Context) {
	card, ok := h.card(c)
	if !ok {
		return
	}

	if raw := c.Query("wait"); raw != "" {
		wait, err := time.ParseDuration(raw)
		if err != nil || wait < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid wait duration",
				"details": raw,
			})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), min(wait, maxCardWait))
		defer cancel()
		_ = card.Wait(ctx)
	}

	c.JSON(http.StatusOK, card.State())
}

func (h *Handler) hoverCard(c *gin.Context) {
	if card, ok := h.card(c); ok {
		c.JSON(http.StatusOK, card.Hover())
	}
}

func (h *Handler) focusCard(c *gin.Context) {
	if card, ok := h.card(c); ok {
		c.JSON(http.StatusOK, card.Focus())
	}
}

func (h *Handler) leaveCard(c *gin.Context) {
	if card, ok := h.card(c); ok {
		c.JSON(http.StatusOK, card.Leave())
	}
}

// unmountCard tears a card down, discarding any pending generation
func (h *Handler) unmountCard(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.UnmountCard(c.Param("productId"))
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) (*service.Session, bool) {
	s, err := h.sessions.Get(c.Param("sid"))
	if err != nil {
		h.sessionError(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) card(c *gin.Context) (*service.ProductCard, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, false
	}
	card, err := s.Card(c.Param("productId"))
	if err != nil {
		h.sessionError(c, err)
		return nil, false
	}
	return card, true
}

func (h *Handler) sessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionClosed):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Session not found",
			"details": err.Error(),
		})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
	default:
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// loggerMiddleware logs each request through zap
func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
