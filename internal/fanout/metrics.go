package fanout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK     = "ok"
	outcomeAbsent = "absent"
	outcomeFailed = "failed"
)

// Metrics holds the downstream fetch collectors.
type Metrics struct {
	fetchCount    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the fetch collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fetchCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "downstream_fetches_total",
				Help: "Total number of downstream fetches by fetch name and outcome.",
			},
			[]string{"fetch", "outcome"},
		),
		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "downstream_fetch_duration_seconds",
				Help:    "Latency of downstream fetches.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"fetch"},
		),
	}

	for _, c := range []prometheus.Collector{m.fetchCount, m.fetchDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(fetch, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchCount.WithLabelValues(fetch, outcome).Inc()
	m.fetchDuration.WithLabelValues(fetch).Observe(d.Seconds())
}
