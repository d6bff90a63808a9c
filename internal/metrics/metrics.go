// Package metrics defines the Prometheus collectors the routing layer and
// proxy front end report through, grounded on kedacore/keda's
// pkg/metricscollector style: package-level vectors registered once,
// exported as plain functions rather than a struct, namespaced under a
// single prefix.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "neobolt_proxy"

var (
	// RoutingRefreshTotal counts routing table refresh attempts by
	// outcome ("ok", "service_unavailable", "protocol_error").
	RoutingRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "refresh_total",
			Help:      "Routing table refresh attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	// RoutingRefreshDuration measures how long a refresh (including the
	// router-candidate walk) took.
	RoutingRefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent refreshing the routing table.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// RoutingTableSize reports the current size of each role set, so
	// "all readers disappeared" shows up on a dashboard instead of only
	// in logs.
	RoutingTableSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "table_size",
			Help:      "Number of addresses currently known per role.",
		},
		[]string{"role"},
	)

	// AcquireTotal counts RoutingPool.Acquire calls by requested mode and
	// outcome.
	AcquireTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "routing",
			Name:      "acquire_total",
			Help:      "Acquire calls, by requested mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	// PoolInUseConnections reports the in-use connection count per
	// address, mirroring the load balancer's own view of the world.
	PoolInUseConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "in_use_connections",
			Help:      "Connections currently checked out, per address.",
		},
		[]string{"address"},
	)
)

// MustRegister registers every collector in this package against reg.
// Called once at startup; a second registration attempt against the same
// registry would panic, same as any other Prometheus collector.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		RoutingRefreshTotal,
		RoutingRefreshDuration,
		RoutingTableSize,
		AcquireTotal,
		PoolInUseConnections,
	)
}
