package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics counts function invocations and times them.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "b24bot",
			Name:      "function_requests_total",
			Help:      "Function invocations by function name and outcome.",
		}, []string{"function", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "b24bot",
			Name:      "function_duration_seconds",
			Help:      "Function handling time in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"function"}),
	}
}

func (m *metrics) observe(function, outcome string, elapsed time.Duration) {
	m.requests.WithLabelValues(function, outcome).Inc()
	m.duration.WithLabelValues(function).Observe(elapsed.Seconds())
}
