package pool

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the pool's instrumentation, registered against the
// configured registry.
type Metrics struct {
	swaps        prometheus.Counter
	mints        prometheus.Counter
	burns        prometheus.Counter
	collects     prometheus.Counter
	ticksCrossed prometheus.Counter
	swapDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the pool metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		swaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "swaps_total",
			Help:      "Number of completed swaps.",
		}),
		mints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "mints_total",
			Help:      "Number of completed mints.",
		}),
		burns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "burns_total",
			Help:      "Number of completed burns.",
		}),
		collects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "collects_total",
			Help:      "Number of completed collects.",
		}),
		ticksCrossed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pool",
			Name:      "ticks_crossed_total",
			Help:      "Number of initialized ticks crossed by swaps.",
		}),
		swapDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pool",
			Name:      "swap_duration_seconds",
			Help:      "Wall time spent executing swaps.",
			Buckets:   prometheus.DefBuckets,
		}, nil),
	}

	registry.MustRegister(m.swaps, m.mints, m.burns, m.collects, m.ticksCrossed, m.swapDuration)
	return m
}
