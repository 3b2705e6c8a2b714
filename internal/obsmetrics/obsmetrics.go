// Package obsmetrics registers the Prometheus metrics cmd/lendingd exposes
// for the lending engine's operations.
package obsmetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks request volume, outcomes, and pool-level gauges for
// the lending engine's HTTP surface.
type EngineMetrics struct {
	operations  *prometheus.CounterVec
	errors      *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	liquidation *prometheus.CounterVec
	flashLoan   *prometheus.CounterVec
	poolDeposit *prometheus.GaugeVec
	poolLoan    *prometheus.GaugeVec
	poolUtil    *prometheus.GaugeVec
}

var (
	once     sync.Once
	registry *EngineMetrics
)

// Engine returns the lazily-initialised, process-wide metrics registry.
func Engine() *EngineMetrics {
	once.Do(func() {
		registry = &EngineMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendingd",
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Total lending engine operations segmented by kind and outcome.",
			}, []string{"operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendingd",
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total lending engine errors segmented by operation and error code.",
			}, []string{"operation", "error"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "lendingd",
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for lending engine operation handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			liquidation: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendingd",
				Subsystem: "engine",
				Name:      "liquidations_total",
				Help:      "Total liquidations segmented by pool.",
			}, []string{"pool"}),
			flashLoan: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendingd",
				Subsystem: "engine",
				Name:      "flash_loans_total",
				Help:      "Total flash loans segmented by pool and outcome.",
			}, []string{"pool", "outcome"}),
			poolDeposit: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendingd",
				Subsystem: "pool",
				Name:      "total_deposits",
				Help:      "Current total deposits recorded for a pool.",
			}, []string{"pool"}),
			poolLoan: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendingd",
				Subsystem: "pool",
				Name:      "total_loans",
				Help:      "Current total outstanding loans recorded for a pool.",
			}, []string{"pool"}),
			poolUtil: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendingd",
				Subsystem: "pool",
				Name:      "utilization_bps",
				Help:      "Current pool utilization in basis points.",
			}, []string{"pool"}),
		}
		prometheus.MustRegister(
			registry.operations,
			registry.errors,
			registry.latency,
			registry.liquidation,
			registry.flashLoan,
			registry.poolDeposit,
			registry.poolLoan,
			registry.poolUtil,
		)
	})
	return registry
}

// ObserveOperation records the outcome and latency of an engine operation.
func (m *EngineMetrics) ObserveOperation(operation, outcome string, seconds float64) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

// ObserveError records an engine error keyed by the operation and a short
// error code (e.g. "insufficient_liquidity", "other").
func (m *EngineMetrics) ObserveError(operation, errCode string) {
	m.errors.WithLabelValues(operation, errCode).Inc()
}

// ObserveLiquidation records a successful liquidation against pool.
func (m *EngineMetrics) ObserveLiquidation(pool string) {
	m.liquidation.WithLabelValues(pool).Inc()
}

// ObserveFlashLoan records a flash loan attempt against pool with outcome
// "success" or "failed".
func (m *EngineMetrics) ObserveFlashLoan(pool, outcome string) {
	m.flashLoan.WithLabelValues(pool, outcome).Inc()
}

// SetPoolGauges sets the point-in-time pool gauges to the given totals and
// utilization. lendingd calls it when serving the pool read view, not after
// each mutating operation.
func (m *EngineMetrics) SetPoolGauges(pool string, totalDeposits, totalLoans uint64, utilizationBps float64) {
	m.poolDeposit.WithLabelValues(pool).Set(float64(totalDeposits))
	m.poolLoan.WithLabelValues(pool).Set(float64(totalLoans))
	m.poolUtil.WithLabelValues(pool).Set(utilizationBps)
}
