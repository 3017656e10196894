// Package metrics exposes Prometheus counters/gauges for the accept loop
// and connection driver, adapted from the teacher's genuinely-wired
// prometheus dependency in pkg/shockwave/buffer_pool_prometheus.go (the
// promauto registration style is kept; the specific buffer-pool metrics
// it tracked are replaced with connection/request/parse-error metrics
// since this module drops the teacher's multi-size buffer pool).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "shockwave_lite",
		Name:      "connections_active",
		Help:      "Number of currently active connections.",
	})

	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shockwave_lite",
		Name:      "connections_total",
		Help:      "Total number of accepted connections.",
	})

	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shockwave_lite",
		Name:      "requests_total",
		Help:      "Total number of requests handled, by status class.",
	}, []string{"status_class"})

	ParseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shockwave_lite",
		Name:      "parse_errors_total",
		Help:      "Total number of parse failures, by error kind.",
	}, []string{"kind"})

	AcceptErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shockwave_lite",
		Name:      "accept_errors_total",
		Help:      "Total number of accept() errors on the listening socket.",
	})
)

// StatusClass buckets an HTTP status code into "2xx", "4xx", etc. for the
// RequestsTotal label, avoiding per-code cardinality explosion.
func StatusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
