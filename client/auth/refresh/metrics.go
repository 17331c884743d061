package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the coordinator's prometheus collectors.
type Metrics struct {
	Refreshes *prometheus.CounterVec
	Joined    prometheus.Counter
	Duration  prometheus.Histogram
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "refresh_total",
			Help:      "Token refresh calls by outcome.",
		}, []string{"outcome"}),
		Joined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "refresh_joined_total",
			Help:      "Callers that joined an in-flight refresh instead of starting one.",
		}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "auth",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of token refresh calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register registers all collectors with registerer.
func (m *Metrics) Register(registerer prometheus.Registerer) error {
	for _, collector := range []prometheus.Collector{m.Refreshes, m.Joined, m.Duration} {
		if err := registerer.Register(collector); err != nil {
			return err
		}
	}
	return nil
}
