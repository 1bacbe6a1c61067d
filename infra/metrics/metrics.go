package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway call and callback metrics
type Metrics struct {
	CallsTotal      *prometheus.CounterVec
	CallDuration    *prometheus.HistogramVec
	CallbacksTotal  *prometheus.CounterVec
	JournalFailures prometheus.Counter
}

// New creates the metrics and registers them with reg.
// A nil registerer uses the prometheus default registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "gocomgate"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		CallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "calls_total",
				Help:      "Total number of gateway calls by outcome",
			},
			[]string{"gateway", "operation", "outcome"},
		),
		CallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "call_duration_seconds",
				Help:      "Gateway call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"gateway", "operation"},
		),
		CallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "callback",
				Name:      "received_total",
				Help:      "Total number of inbound gateway callbacks by status",
			},
			[]string{"status"},
		),
		JournalFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "journal",
				Name:      "failures_total",
				Help:      "Total number of call records that could not be journaled",
			},
		),
	}

	reg.MustRegister(m.CallsTotal, m.CallDuration, m.CallbacksTotal, m.JournalFailures)
	return m
}

// ObserveCall records one gateway call
func (m *Metrics) ObserveCall(gateway, operation, outcome string, duration time.Duration) {
	m.CallsTotal.WithLabelValues(gateway, operation, outcome).Inc()
	m.CallDuration.WithLabelValues(gateway, operation).Observe(duration.Seconds())
}

// ObserveCallback records one inbound callback, status is accepted, unauthorized, invalid or listener_error
func (m *Metrics) ObserveCallback(status string) {
	m.CallbacksTotal.WithLabelValues(status).Inc()
}

// ObserveJournalFailure counts a call record that could not be persisted
func (m *Metrics) ObserveJournalFailure() {
	m.JournalFailures.Inc()
}
