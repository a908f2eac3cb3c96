package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "tvfleet_"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	registerOnce sync.Once

	bulkDispatches  prometheus.Counter
	dispatchLatency prometheus.Histogram

	commandOutcomes *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec

	tvsReachable prometheus.Gauge
)

// Init registers the panel's collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		bulkDispatches = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "bulk_dispatches_total",
				Help: "Total bulk command dispatches",
			},
		)
		dispatchLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "bulk_dispatch_seconds",
				Help:    "Wall-clock duration of bulk dispatches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)

		commandOutcomes = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_outcomes_total",
				Help: "Total per-TV command outcomes by result",
			},
			[]string{"result"},
		)
		commandLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "command_attempt_seconds",
				Help:    "Per-TV command attempt latency in seconds by result",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		tvsReachable = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "tvs_reachable",
				Help: "TVs responding to the last reachability sweep",
			},
		)

		prometheus.MustRegister(
			bulkDispatches,
			dispatchLatency,
			commandOutcomes,
			commandLatency,
			tvsReachable,
		)
	})
}

// ObserveDispatch records one completed bulk dispatch.
func ObserveDispatch(duration time.Duration) {
	if bulkDispatches == nil {
		return
	}
	bulkDispatches.Inc()
	dispatchLatency.Observe(duration.Seconds())
}

// ObserveCommand records one per-TV outcome.
func ObserveCommand(result string, seconds float64) {
	if commandOutcomes == nil {
		return
	}
	commandOutcomes.WithLabelValues(result).Inc()
	commandLatency.WithLabelValues(result).Observe(seconds)
}

// SetReachableTVs updates the reachability gauge.
func SetReachableTVs(count int) {
	if tvsReachable == nil {
		return
	}
	tvsReachable.Set(float64(count))
}
