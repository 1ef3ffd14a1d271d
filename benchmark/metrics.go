package benchmark

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// Metrics holds the counters of a runner. They are registered on the runner's own registry so
// several runners can live in one process.
type Metrics struct {
	Windows  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Runs     prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Windows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fts_benchmark_windows_total",
				Help: "Number of evaluated sliding windows per method and status",
			},
			[]string{"method", "status"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fts_benchmark_window_duration_seconds",
				Help:    "Time to train and score one sliding window",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"method"},
		),
		Runs: factory.NewCounter(prometheus.CounterOpts{
			Name: "fts_benchmark_runs_total",
			Help: "Number of benchmark runs started",
		}),
	}
}
