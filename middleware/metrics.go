package middleware

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ose-micro/mediator"
)

// Metrics records request counts and durations per request name.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "mediator"
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"request", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "requests",
				Name:      "duration_seconds",
				Help:      "Request handling duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"request"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware returns the middleware that records into m.
func (m *Metrics) Middleware() mediator.MiddlewareFunc {
	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		start := time.Now()
		response, err := next(ctx, request)

		status := "ok"
		if err != nil {
			status = "error"
		}
		m.requests.WithLabelValues(request.RequestName(), status).Inc()
		m.duration.WithLabelValues(request.RequestName()).Observe(time.Since(start).Seconds())

		return response, err
	}
}
