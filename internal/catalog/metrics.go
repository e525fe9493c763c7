package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// snapshotLoadDuration tracks the time taken to load a catalog snapshot.
	snapshotLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_snapshot_load_duration_seconds",
		Help:    "Time taken to load the catalog snapshot",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	// snapshotLoads counts snapshot loads by result.
	snapshotLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_snapshot_loads_total",
		Help: "Total number of catalog snapshot loads by result",
	}, []string{"result"}) // result: success, error

	// snapshotStaleServes counts requests answered from an expired snapshot after a failed reload.
	snapshotStaleServes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_snapshot_stale_serves_total",
		Help: "Total number of requests served from a stale catalog snapshot",
	})

	// snapshotProducts tracks the number of products in the current snapshot.
	snapshotProducts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_snapshot_products",
		Help: "Number of products in the current catalog snapshot",
	})
)
