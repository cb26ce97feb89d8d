// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_settlements_total",
			Help: "Transactions moved out of PENDING, by outcome",
		},
		[]string{"outcome"},
	)

	transactionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "transactions_created_total",
			Help: "Transactions created",
		},
	)

	emailsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_queue_dropped_total",
			Help: "Emails dropped because the queue was full",
		},
	)

	emailsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "email_send_failures_total",
			Help: "Emails that failed to send",
		},
	)

	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Open websocket connections on this instance",
		},
	)

	wsEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_events_total",
			Help: "Websocket events by result (sent or dropped)",
		},
		[]string{"result"},
	)
)

// Settlement outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeExpired  = "expired"
)

func ObserveRequest(route, method, status string, seconds float64) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(seconds)
}

func IncSettlement(outcome string) {
	settlements.WithLabelValues(outcome).Inc()
}

func IncTransactionCreated() {
	transactionsCreated.Inc()
}

func IncEmailDropped() {
	emailsDropped.Inc()
}

func IncEmailFailed() {
	emailsFailed.Inc()
}

func AddWSConnections(delta float64) {
	wsConnections.Add(delta)
}

func IncWSEvent(sent bool) {
	if sent {
		wsEvents.WithLabelValues("sent").Inc()
		return
	}
	wsEvents.WithLabelValues("dropped").Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
