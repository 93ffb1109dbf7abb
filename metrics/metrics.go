package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits counts reads that returned a live entry.
	Hits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlcache_hits_total",
			Help: "Total number of cache reads that found a live entry",
		},
	)

	// Misses counts reads that found no row or a logically expired one.
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlcache_misses_total",
			Help: "Total number of cache reads that returned absent",
		},
	)

	// Sweeps counts expiration sweep runs by result (success|failure).
	Sweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlcache_sweeps_total",
			Help: "Total number of expiration sweep runs",
		},
		[]string{"result"},
	)

	// SweptEntries counts rows physically removed by expiration sweeps.
	SweptEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlcache_swept_entries_total",
			Help: "Total number of expired entries deleted by sweeps",
		},
	)
)
