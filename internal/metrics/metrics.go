// Package metrics exposes Prometheus instrumentation for the SMTP
// command pipeline, the query handlers and the store.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts executed SMTP commands by verb and outcome
	// (ok, syntax, bad_sequence, not_implemented, store, unrecognized,
	// cancelled).
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devsmtp",
			Subsystem: "command",
			Name:      "executions_total",
			Help:      "Total number of executed SMTP commands by verb and outcome",
		},
		[]string{"verb", "outcome"},
	)

	// MessagesStored counts messages accepted by DATA and persisted.
	MessagesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "devsmtp",
			Subsystem: "store",
			Name:      "messages_total",
			Help:      "Total number of messages persisted to the store",
		},
	)

	// QueriesTotal counts query handler executions by operation and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devsmtp",
			Subsystem: "query",
			Name:      "executions_total",
			Help:      "Total number of executed queries by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// StoreQueryDuration measures store operation latency in seconds.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devsmtp",
			Subsystem: "store",
			Name:      "query_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// ConnectionsActive tracks currently open SMTP client connections.
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "devsmtp",
			Subsystem: "smtp",
			Name:      "connections_active",
			Help:      "Current number of open SMTP client connections",
		},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
