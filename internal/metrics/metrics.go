// Package metrics exposes Prometheus counters and histograms for the
// host: trades accepted/rejected by error kind, collateral charged,
// and solver iteration counts. Grounded on the example pack's use of
// github.com/prometheus/client_golang (sawpanic-cryptorun).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// TradesTotal counts trade() calls by outcome ("accepted" or a
	// market.Kind string for rejections).
	TradesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "distmarket",
		Name:      "trades_total",
		Help:      "Total trade() calls by outcome.",
	}, []string{"outcome"})

	// CollateralCharged is the distribution of collateral charged per
	// accepted trade, in whole units (real-valued, not raw fixed-point).
	CollateralCharged = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "distmarket",
		Name:      "collateral_charged",
		Help:      "Collateral charged per accepted trade.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 12),
	})

	// SolverIterations is the distribution of damped-Newton iteration
	// counts the solver actually used per call.
	SolverIterations = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "distmarket",
		Name:      "solver_iterations",
		Help:      "Damped-Newton iterations used by find_max_loss.",
		Buckets:   prometheus.LinearBuckets(1, 2, 10),
	})

	// MarketsByPhase tracks the current phase of every live market,
	// keyed by market ID and phase name (1 when current, 0 otherwise).
	MarketsByPhase = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "distmarket",
		Name:      "market_phase",
		Help:      "Current phase of each market (1 = current phase).",
	}, []string{"market_id", "phase"})
)

// Registry bundles the metrics into a dedicated prometheus.Registerer
// so the host doesn't pollute the default global registry.
func Registry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(TradesTotal, CollateralCharged, SolverIterations, MarketsByPhase)
	return r
}
