package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the collectors exported on /metrics.
type Metrics struct {
	StepsRendered   *prometheus.CounterVec
	Actions         *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// StepsRendered counts step renders by outcome status
		StepsRendered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formflow",
				Subsystem: "frontend",
				Name:      "steps_rendered_total",
				Help:      "Total number of step renders by form and status",
			},
			[]string{"form", "status"},
		),
		// Actions counts posted navigation actions by result
		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "formflow",
				Subsystem: "flow",
				Name:      "actions_total",
				Help:      "Total number of posted actions by form, action and result",
			},
			[]string{"form", "action", "result"},
		),
		// RequestDuration tracks handler latency
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "formflow",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route", "code"},
		),
	}
}
