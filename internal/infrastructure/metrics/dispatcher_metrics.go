package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/caf-approval/internal/application/dispatcher"
	"github.com/garyjia/caf-approval/internal/domain/event"
)

// DispatcherMetrics records dispatcher activity on its own registry
type DispatcherMetrics struct {
	registry *prometheus.Registry

	eventsDispatched *prometheus.CounterVec
	observerCalls    *prometheus.CounterVec
	observerLatency  *prometheus.HistogramVec
	historySize      prometheus.Gauge
}

// NewDispatcherMetrics registers the collectors on a fresh registry
func NewDispatcherMetrics() *DispatcherMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &DispatcherMetrics{
		registry: reg,
		eventsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caf",
			Subsystem: "dispatcher",
			Name:      "events_total",
			Help:      "Total number of domain events dispatched, by event type.",
		}, []string{"event_type"}),
		observerCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "caf",
			Subsystem: "dispatcher",
			Name:      "observer_calls_total",
			Help:      "Observer invocations broken down by observer, event type and result.",
		}, []string{"observer", "event_type", "result"}),
		observerLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "caf",
			Subsystem: "dispatcher",
			Name:      "observer_latency_seconds",
			Help:      "Latency distribution for observer invocations.",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.05,
				0.1, 0.25, 0.5, 1,
				2.5, 5, 10,
			},
		}, []string{"observer"}),
		historySize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "caf",
			Subsystem: "dispatcher",
			Name:      "history_size",
			Help:      "Number of events currently retained in the dispatcher history.",
		}),
	}
}

func (m *DispatcherMetrics) EventDispatched(eventType event.Type) {
	m.eventsDispatched.WithLabelValues(eventType.String()).Inc()
}

func (m *DispatcherMetrics) ObserverHandled(observer string, eventType event.Type, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.observerCalls.WithLabelValues(observer, eventType.String(), result).Inc()
	m.observerLatency.WithLabelValues(observer).Observe(elapsed.Seconds())
}

func (m *DispatcherMetrics) HistorySize(n int) {
	m.historySize.Set(float64(n))
}

// Registry exposes the underlying registry, e.g. to add process collectors
func (m *DispatcherMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *DispatcherMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ dispatcher.Recorder = (*DispatcherMetrics)(nil)
