package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the engine's prometheus collectors.
type Metrics struct {
	assignments    *prometheus.CounterVec
	noShows        prometheus.Counter
	deliveries     *prometheus.CounterVec
	queueLength    *prometheus.GaugeVec
	tickDuration   *prometheus.HistogramVec
	requestCount   *prometheus.CounterVec
	requestErrors  *prometheus.CounterVec
}

// NewMetrics registers the engine collectors on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		assignments: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketero_assignments_total",
				Help: "Tickets bound to advisors, per queue class",
			},
			[]string{"queue_class"},
		),
		noShows: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "ticketero_no_shows_total",
				Help: "Tickets expired by the no-show sweeper",
			},
		),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketero_deliveries_total",
				Help: "Outbound message delivery attempts by template and outcome",
			},
			[]string{"template", "outcome"},
		),
		queueLength: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ticketero_queue_length",
				Help: "Waiting tickets per queue class",
			},
			[]string{"queue_class"},
		),
		tickDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticketero_tick_duration_seconds",
				Help:    "Duration of engine ticks",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"loop"},
		),
		requestCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketero_http_requests_total",
				Help: "HTTP requests by path, method and status",
			},
			[]string{"path", "method", "status"},
		),
		requestErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketero_http_errors_total",
				Help: "HTTP errors by path, method and error code",
			},
			[]string{"path", "method", "code"},
		),
	}
}

// RecordAssignment counts one ticket bound to an advisor.
func (m *Metrics) RecordAssignment(queueClass string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(queueClass).Inc()
}

// RecordNoShow counts one ticket expired by the sweeper.
func (m *Metrics) RecordNoShow() {
	if m == nil {
		return
	}
	m.noShows.Inc()
}

// RecordDelivery counts one delivery attempt outcome.
func (m *Metrics) RecordDelivery(template, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(template, outcome).Inc()
}

// SetQueueLength publishes the waiting count for one queue class.
func (m *Metrics) SetQueueLength(queueClass string, length int) {
	if m == nil {
		return
	}
	m.queueLength.WithLabelValues(queueClass).Set(float64(length))
}

// ObserveTick records the duration of one engine tick.
func (m *Metrics) ObserveTick(loop string, duration time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.WithLabelValues(loop).Observe(duration.Seconds())
}

// RecordRequest counts one served HTTP request.
func (m *Metrics) RecordRequest(path, method, status string) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(path, method, status).Inc()
}

// RecordError counts one failed HTTP request.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.requestErrors.WithLabelValues(path, method, code).Inc()
}
