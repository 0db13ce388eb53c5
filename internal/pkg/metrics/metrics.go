package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScansTotal counts completed balance scans.
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chainfund_scans_total",
		Help: "Number of completed balance scans.",
	})

	// ScanDurationSeconds observes end-to-end scan latency.
	ScanDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chainfund_scan_duration_seconds",
		Help:    "End-to-end balance scan latency.",
		Buckets: prometheus.DefBuckets,
	})

	// BalanceQueryFailuresTotal counts individual (chain, token) reads that
	// degraded to zero balances.
	BalanceQueryFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chainfund_balance_query_failures_total",
		Help: "Individual balance queries that resolved to zero after a failure.",
	}, []string{"network"})

	// PlansTotal counts deposit plans built.
	PlansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chainfund_plans_total",
		Help: "Number of deposit plans built.",
	})

	// RouteLookupsTotal counts routing provider quote requests.
	RouteLookupsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chainfund_route_lookups_total",
		Help: "Routing provider quote requests issued during planning.",
	})

	// RouteLookupFailuresTotal counts quote requests that found no usable route.
	RouteLookupFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chainfund_route_lookup_failures_total",
		Help: "Routing provider quote requests that failed or found no route.",
	})

	// ExecutionUnitsTotal counts execution units by terminal status.
	ExecutionUnitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chainfund_execution_units_total",
		Help: "Execution units that reached a terminal status.",
	}, []string{"status"})
)

// MustRegister registers all collectors with the default registry. Call once
// at startup.
func MustRegister() {
	prometheus.MustRegister(
		ScansTotal,
		ScanDurationSeconds,
		BalanceQueryFailuresTotal,
		PlansTotal,
		RouteLookupsTotal,
		RouteLookupFailuresTotal,
		ExecutionUnitsTotal,
	)
}
