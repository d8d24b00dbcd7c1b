package node

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the counters/gauges an operator watches to tell a healthy
// indexer from one falling behind or burning through cenotaphs.
type Metrics struct {
	BlocksApplied   prometheus.Counter
	TxsApplied      prometheus.Counter
	CenotaphsRaised prometheus.Counter
	EventsEmitted   *prometheus.CounterVec
	TipHeight       prometheus.Gauge
	ApplyDuration   prometheus.Histogram
}

// NewMetrics registers a fresh set of collectors against reg (pass
// prometheus.NewRegistry() in tests to avoid the global default registry's
// cross-test collisions).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BlocksApplied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "relics_blocks_applied_total",
			Help: "Number of blocks applied to chain state.",
		}),
		TxsApplied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "relics_transactions_applied_total",
			Help: "Number of transactions processed.",
		}),
		CenotaphsRaised: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "relics_cenotaphs_total",
			Help: "Number of transactions that raised a cenotaph.",
		}),
		EventsEmitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "relics_events_total",
			Help: "Number of events emitted, by kind.",
		}, []string{"kind"}),
		TipHeight: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "relics_tip_height",
			Help: "Height of the most recently applied block.",
		}),
		ApplyDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "relics_block_apply_duration_seconds",
			Help:    "Wall-clock time to apply one block.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return m
}

// Serve starts a blocking HTTP server exposing /metrics at addr; callers
// typically run it in its own goroutine.
func Serve(addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
