// Package metrics defines and registers all custom Prometheus metrics for the
// courier quote service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register themselves with the default registry through promauto
// when the package is imported.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "courier"

// Outcome labels for OrdersReceivedTotal.
const (
	OutcomeAccepted = "accepted"
	OutcomeSpam     = "spam"
	OutcomeError    = "error"
)

// Reason labels for RequestsRejectedTotal.
const (
	ReasonRateLimited = "rate_limited"
	ReasonBadMedia    = "unsupported_media"
	ReasonTooLarge    = "too_large"
)

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersReceivedTotal counts order submissions that reached the handler.
// Label:
//   - outcome: "accepted", "spam" or "error"
var OrdersReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_received_total",
		Help:      "Total number of order submissions, by outcome.",
	},
	[]string{"outcome"},
)

// RequestsRejectedTotal counts requests turned away by middleware before
// reaching a handler.
// Labels:
//   - route: the matched route pattern
//   - reason: "rate_limited", "unsupported_media" or "too_large"
var RequestsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_rejected_total",
		Help:      "Total number of requests rejected by middleware, by route and reason.",
	},
	[]string{"route", "reason"},
)

// RateLimitDecisionsTotal counts limiter answers.
// Label:
//   - decision: "allowed" or "rejected"
var RateLimitDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_decisions_total",
		Help:      "Total number of rate limiter decisions on order submission.",
	},
	[]string{"decision"},
)

// OrderQueueDepth tracks the number of appends waiting for the order writer.
var OrderQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "order_queue_depth",
		Help:      "Current number of orders waiting to be persisted.",
	},
)

// ── Quote metrics ─────────────────────────────────────────────────────────────

// QuotesComputedTotal counts quote evaluations.
// Label:
//   - tariff: "normal", "elevated", or "none" when no price could be shown
var QuotesComputedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quotes_computed_total",
		Help:      "Total number of price quotes computed, by tariff.",
	},
	[]string{"tariff"},
)

// RouteLookupsTotal counts distance lookups made while quoting.
// Label:
//   - result: "ok" or "failed"
var RouteLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_lookups_total",
		Help:      "Total number of route lookups, by result.",
	},
	[]string{"result"},
)

// StaleDistanceResultsTotal counts lookup results discarded because the
// addresses changed while the lookup was in flight.
var StaleDistanceResultsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_distance_results_total",
		Help:      "Total number of route lookup results discarded as stale.",
	},
)

// ── HTTP metrics ──────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request handling time.
// Labels:
//   - method: HTTP method
//   - route: the matched route pattern (e.g. "/api/orders")
//   - code: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "code"},
)
