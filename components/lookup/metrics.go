package lookup

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded by the metrics.
const (
	outcomeOK       = "ok"
	outcomeNotFound = "not_found"
	outcomeInvalid  = "invalid"
	outcomeDenied   = "denied"
	outcomeError    = "error"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics builds the component metrics. A nil registerer leaves them
// unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fklookup",
			Name:      "requests_total",
			Help:      "Lookup endpoint requests by driver, endpoint and outcome",
		}, []string{"driver", "endpoint", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fklookup",
			Name:      "request_duration_seconds",
			Help:      "Lookup endpoint latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"driver", "endpoint"}),
	}
}

func (m *metrics) observe(driver, endpoint, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(driver, endpoint, outcome).Inc()
	m.duration.WithLabelValues(driver, endpoint).Observe(time.Since(started).Seconds())
}
