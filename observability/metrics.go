package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "assistant"

// MetricsObserver turns events into Prometheus metrics:
//
//	assistant_events_total{type,level}
//	assistant_event_duration_seconds{type}   events carrying "duration"
//	assistant_tool_calls_total{tool,status}  events carrying "tool" and "is_error"
type MetricsObserver struct {
	events    *prometheus.CounterVec
	durations *prometheus.HistogramVec
	toolCalls *prometheus.CounterVec
}

// NewMetricsObserver registers its collectors with reg. A nil reg uses the
// default Prometheus registerer.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &MetricsObserver{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_total",
			Help:      "Observability events emitted, by type and level.",
		}, []string{"type", "level"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "event_duration_seconds",
			Help:      "Duration reported by timed events, by type.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"type"}),
		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tool_calls_total",
			Help:      "Tool calls executed, by tool and outcome.",
		}, []string{"tool", "status"}),
	}
}

func (m *MetricsObserver) OnEvent(_ context.Context, event Event) {
	m.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()

	if d, ok := event.Data["duration"].(time.Duration); ok {
		m.durations.WithLabelValues(string(event.Type)).Observe(d.Seconds())
	}

	tool, ok := event.Data["tool"].(string)
	if !ok {
		return
	}
	isErr, ok := event.Data["is_error"].(bool)
	if !ok {
		return
	}
	status := "ok"
	if isErr {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}
