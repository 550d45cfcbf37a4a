// Package metrics registers the service's Prometheus collectors on the default
// registry, which /metrics exposes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_supply_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "school_supply_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	RequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_supply_request_transitions_total",
		Help: "Request lifecycle transitions by target status.",
	}, []string{"status"})

	InsufficientStock = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "school_supply_insufficient_stock_total",
		Help: "Approvals or dispatches refused for lack of stock.",
	}, []string{"stage"})
)
