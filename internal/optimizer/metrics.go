package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolveTier counts resolved items by the tier that produced their candidates.
	resolveTier = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_resolve_tier_total",
		Help: "Total number of resolved items by match tier",
	}, []string{"tier"}) // tier: catalog_id, phrase, keyword, none

	// lookupFailures counts catalog lookups that failed or timed out for one item.
	lookupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_item_lookup_failures_total",
		Help: "Total number of per-item catalog lookup failures by tier",
	}, []string{"tier"})

	// comparisonDuration tracks the time spent in each comparison stage.
	comparisonDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "basket_comparison_duration_seconds",
		Help:    "Time taken by basket comparison by stage",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"stage"}) // stage: resolve, price, compare, total

	// comparisonErrors counts failed comparisons by reason.
	comparisonErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_comparison_errors_total",
		Help: "Total number of failed basket comparisons by reason",
	}, []string{"reason"}) // reason: validation, catalog_unavailable, timeout, cancelled, internal

	// basketSize tracks the distribution of basket sizes.
	basketSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_items_count",
		Help:    "Number of items in comparison requests",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	// storeCount tracks the number of stores priced per comparison.
	storeCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_stores_count",
		Help:    "Number of stores priced per comparison",
		Buckets: []float64{1, 2, 5, 10, 20, 50},
	})

	// catalogOutages counts requests failed by a catalog outage.
	catalogOutages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "basket_catalog_outages_total",
		Help: "Total number of comparisons failed by catalog unavailability",
	})

	// breakerState tracks the catalog circuit breaker state (0 closed, 1 open, 2 half-open).
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "basket_circuit_breaker_state",
		Help: "Circuit breaker state: 0 closed, 1 open, 2 half-open",
	}, []string{"name"})
)

// MetricsRecorder provides methods to record comparison metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordResolveTier records the tier an item was resolved by.
func (m *MetricsRecorder) RecordResolveTier(tier MatchTier) {
	resolveTier.WithLabelValues(string(tier)).Inc()
}

// RecordLookupFailure records a degraded per-item lookup.
func (m *MetricsRecorder) RecordLookupFailure(tier MatchTier) {
	lookupFailures.WithLabelValues(string(tier)).Inc()
}

// RecordStageDuration records the duration of one comparison stage.
func (m *MetricsRecorder) RecordStageDuration(stage string, duration time.Duration) {
	comparisonDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordError records a failed comparison.
func (m *MetricsRecorder) RecordError(reason string) {
	comparisonErrors.WithLabelValues(reason).Inc()
	if reason == "catalog_unavailable" {
		catalogOutages.Inc()
	}
}

// RecordBasketSize records the size of a basket.
func (m *MetricsRecorder) RecordBasketSize(size int) {
	basketSize.Observe(float64(size))
}

// RecordStoreCount records the number of stores priced.
func (m *MetricsRecorder) RecordStoreCount(count int) {
	storeCount.Observe(float64(count))
}

// RecordBreakerState records a circuit breaker state change.
func (m *MetricsRecorder) RecordBreakerState(name string, state CircuitBreakerState) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
