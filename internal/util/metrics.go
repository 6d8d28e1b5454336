package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartItemsAddedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_added_total",
		Help: "Total number of add-to-cart actions",
	})

	CartItemsRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_items_removed_total",
		Help: "Total number of cart items removed by quantity reaching zero",
	})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of confirmed mock checkouts",
	})

	ViewTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "view_transitions_total",
		Help: "Total number of view transitions",
	}, []string{"from", "to"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "active_sessions",
		Help: "Number of live storefront sessions",
	})

	CopyGenerationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "copy_generation_total",
		Help: "Total number of marketing copy generations by outcome",
	}, []string{"outcome"})

	CopyGenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "copy_generation_latency_seconds",
		Help:    "Latency of marketing copy generation",
		Buckets: prometheus.DefBuckets,
	})

	CopyResultsDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "copy_results_discarded_total",
		Help: "Generated copy dropped because the card was unmounted",
	})

	ReceiptsArchivedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "receipts_archived_total",
		Help: "Total number of receipts written to the archive",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
