package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edi_exchange"

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomePending = "pending"
	OutcomeError   = "error"
)

// Metrics groups the collectors of the exchange service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	operations  *prometheus.CounterVec
	sweeps      *prometheus.HistogramVec
	swept       *prometheus.CounterVec
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Record state transitions by exchange type and target state.",
		}, []string{"type", "state"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Reconciliation operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		sweeps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of batch sync sweeps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"sweep"}),
		swept: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_records_total",
			Help:      "Records visited by batch sync sweeps by outcome.",
		}, []string{"sweep", "outcome"}),
	}
	reg.MustRegister(m.transitions, m.operations, m.sweeps, m.swept)
	return m
}

// Transition counts a record entering state.
func (m *Metrics) Transition(typeCode, state string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(typeCode, state).Inc()
}

// Operation counts one engine operation.
func (m *Metrics) Operation(name, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(name, outcome).Inc()
}

// Sweep records one batch sweep and the outcome of each record it visited.
func (m *Metrics) Sweep(name string, took time.Duration, settled, pending, failed int) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(name).Observe(took.Seconds())
	m.swept.WithLabelValues(name, OutcomeOK).Add(float64(settled))
	m.swept.WithLabelValues(name, OutcomePending).Add(float64(pending))
	m.swept.WithLabelValues(name, OutcomeError).Add(float64(failed))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
