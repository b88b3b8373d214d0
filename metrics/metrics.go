// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecofinds_api_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ecofinds_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CatalogFallbacks counts feed responses served from demo data
	CatalogFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecofinds_catalog_fallback_total",
		Help: "Product feed responses served from demo data after a store failure",
	})

	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecofinds_orders_created_total",
		Help: "Orders written by checkout",
	})

	OrderValueCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ecofinds_order_value_cents_total",
		Help: "Sum of order totals in minor currency units",
	})
)

// RecordAPIRequest records one finished request
func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordOrder records a successful checkout
func RecordOrder(totalCents int64) {
	OrdersCreated.Inc()
	OrderValueCents.Add(float64(totalCents))
}
