package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	OperationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	StatementCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_statements_total",
			Help: "Statement reads by outcome.",
		},
		[]string{"outcome"},
	)
)

const (
	OutcomeCommitted     = "committed"
	OutcomeLimitExceeded = "limit_exceeded"
	OutcomeNotFound      = "not_found"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
	OutcomeOK            = "ok"
)

func Register(registry *prometheus.Registry) {
	registry.MustRegister(RequestCount, RequestDuration, OperationCount, StatementCount)
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
