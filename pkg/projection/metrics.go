package projection

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports projection activity as Prometheus metrics.
type Metrics struct {
	invocations   prometheus.Counter
	duration      prometheus.Histogram
	phaseDuration *prometheus.HistogramVec
	entries       *prometheus.CounterVec
}

// NewMetrics creates the projection metrics and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	buckets := []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	m := &Metrics{
		invocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tractoproj",
			Subsystem: "projection",
			Name:      "invocations_total",
			Help:      "Number of completed forward projections.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tractoproj",
			Subsystem: "projection",
			Name:      "duration_seconds",
			Help:      "Wall time of a forward projection.",
			Buckets:   buckets,
		}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tractoproj",
			Subsystem: "projection",
			Name:      "phase_duration_seconds",
			Help:      "Wall time of each projection phase.",
			Buckets:   buckets,
		}, []string{"phase"}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tractoproj",
			Subsystem: "projection",
			Name:      "entries_total",
			Help:      "Dictionary entries visited, by phase and whether any coefficient was positive.",
		}, []string{"phase", "outcome"}),
	}

	for _, c := range []prometheus.Collector{m.invocations, m.duration, m.phaseDuration, m.entries} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register projection metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(stats *Stats, elapsed time.Duration) {
	m.invocations.Inc()
	m.duration.Observe(elapsed.Seconds())

	for _, p := range []struct {
		name  string
		stats PhaseStats
	}{
		{"ic", stats.IC},
		{"ec", stats.EC},
		{"iso", stats.ISO},
	} {
		m.phaseDuration.WithLabelValues(p.name).Observe(p.stats.Duration.Seconds())
		m.entries.WithLabelValues(p.name, "active").Add(float64(p.stats.Active))
		m.entries.WithLabelValues(p.name, "skipped").Add(float64(p.stats.Skipped))
	}
}
