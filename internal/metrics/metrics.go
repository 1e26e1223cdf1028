package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit paths.
const (
	PathDraft  = "draft"
	PathDirect = "direct"
)

// Commit outcomes.
const (
	OutcomeCommitted    = "committed"
	OutcomeInsufficient = "insufficient_stock"
	OutcomeEmpty        = "empty"
	OutcomeError        = "error"
)

var (
	commits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_commits_total",
			Help: "Order commits by path and outcome",
		},
		[]string{"path", "outcome"},
	)

	rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_stock_rollbacks_total",
			Help: "Compensating stock releases by result",
		},
		[]string{"result"},
	)

	adjustRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickup_adjust_stock_retries_total",
			Help: "adjustStock attempts retried after a storage conflict",
		},
	)

	unitsFulfilled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickup_units_fulfilled_total",
			Help: "Units deducted from stock by committed orders",
		},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickup_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickup_http_request_duration_ms",
			Help:    "HTTP request duration in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "route"},
	)
)

func ObserveCommit(path, outcome string, units int) {
	commits.WithLabelValues(path, outcome).Inc()
	if outcome == OutcomeCommitted && units > 0 {
		unitsFulfilled.Add(float64(units))
	}
}

func ObserveRollback(ok bool) {
	if ok {
		rollbacks.WithLabelValues("restored").Inc()
		return
	}
	rollbacks.WithLabelValues("failed").Inc()
}

func ObserveAdjustRetry() { adjustRetries.Inc() }

func ObserveHTTP(method, route, status string, ms float64) {
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(ms)
}
