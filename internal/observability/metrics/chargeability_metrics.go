package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChargeabilityMetrics captures cache population health signals.
type ChargeabilityMetrics struct {
	runs        *prometheus.CounterVec
	batches     prometheus.Counter
	runDuration prometheus.Histogram
}

var (
	chargeabilityMetricsOnce sync.Once
	chargeabilityMetrics     *ChargeabilityMetrics
)

// Chargeability returns the singleton chargeability metrics registry.
func Chargeability() *ChargeabilityMetrics {
	chargeabilityMetricsOnce.Do(func() {
		chargeabilityMetrics = newChargeabilityMetrics(prometheus.DefaultRegisterer)
	})
	return chargeabilityMetrics
}

// ResetChargeabilityMetricsForTest resets the metrics singleton for tests.
func ResetChargeabilityMetricsForTest() {
	chargeabilityMetricsOnce = sync.Once{}
	chargeabilityMetrics = nil
}

func newChargeabilityMetrics(registerer prometheus.Registerer) *ChargeabilityMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_chargeability_population_runs_total",
		Help: "Cache population runs by trigger and outcome.",
	}, []string{"trigger", "result"})
	batches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleet_chargeability_compliance_batches_total",
		Help: "Bulk compliance calls issued to the external service.",
	})
	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_chargeability_population_run_duration_seconds",
		Help:    "Cache population run latency, external compliance calls included.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	})

	for _, collector := range []prometheus.Collector{runs, batches, runDuration} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &ChargeabilityMetrics{
		runs:        runs,
		batches:     batches,
		runDuration: runDuration,
	}
}

func (m *ChargeabilityMetrics) IncRun(trigger, result string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(trigger, result).Inc()
}

func (m *ChargeabilityMetrics) IncBatch() {
	if m == nil || m.batches == nil {
		return
	}
	m.batches.Inc()
}

func (m *ChargeabilityMetrics) ObserveRun(d time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())
}
