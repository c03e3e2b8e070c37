package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of orders placed through checkout",
	})

	OrdersPersistFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_persist_failed_total",
		Help: "Total number of orders whose durable write failed (handed off to messaging only)",
	})

	CheckoutRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_rejected_total",
		Help: "Total number of checkout attempts rejected before materialization",
	}, []string{"reason"})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_checkout_latency_seconds",
		Help:    "Latency of order materialization including the durable write attempt",
		Buckets: prometheus.DefBuckets,
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op"})

	CartPersistFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_persist_failed_total",
		Help: "Total number of best-effort cart snapshot writes that failed",
	})

	CatalogRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_refresh_total",
		Help: "Total number of catalog cache refreshes",
	}, []string{"trigger"})

	UploadsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_uploads_rejected_total",
		Help: "Total number of uploads rejected client-side for exceeding the size cap",
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
