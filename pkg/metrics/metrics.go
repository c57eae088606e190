// Package metrics provides Prometheus metrics for the rating pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the rating service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Engine metrics
	matchesRated     prometheus.Counter
	matchesSkipped   prometheus.Counter
	periodsProcessed prometheus.Counter
	trackedAthletes  prometheus.Gauge

	// Calibration metrics
	calibrationRuns    prometheus.Counter
	simulationDuration prometheus.Histogram

	// Output metrics
	leaderboardBuilds prometheus.Counter

	// Store metrics
	storeQueryDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matrank",
		subsystem:        "ratings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesRated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_rated_total",
		Help:      "Total number of matches applied as rating games",
	})

	m.matchesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_skipped_total",
		Help:      "Total number of matches excluded from rating effect (degenerate or off-period)",
	})

	m.periodsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "periods_processed_total",
		Help:      "Total number of rating periods processed across all runs",
	})

	m.trackedAthletes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tracked_athletes",
		Help:      "Number of athletes tracked by the most recent simulation run",
	})

	m.calibrationRuns = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "calibration_runs_total",
		Help:      "Total number of back-test simulation runs during tau search",
	})

	m.simulationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "simulation_duration_seconds",
		Help:      "Duration of one full simulation run across all periods",
		Buckets:   m.histogramBuckets,
	})

	m.leaderboardBuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_builds_total",
		Help:      "Total number of leaderboard builds",
	})

	m.storeQueryDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_query_duration_seconds",
			Help:      "Duration of store queries by query name",
			Buckets:   m.histogramBuckets,
		},
		[]string{"query"},
	)
}

// RecordMatchesRated adds n matches to the rated counter.
func RecordMatchesRated(n int) {
	globalManager.matchesRated.Add(float64(n))
}

// RecordMatchesSkipped adds n matches to the skipped counter.
func RecordMatchesSkipped(n int) {
	globalManager.matchesSkipped.Add(float64(n))
}

// RecordPeriodsProcessed adds n periods to the processed counter.
func RecordPeriodsProcessed(n int) {
	globalManager.periodsProcessed.Add(float64(n))
}

// UpdateTrackedAthletes sets the tracked athlete gauge.
func UpdateTrackedAthletes(count int) {
	globalManager.trackedAthletes.Set(float64(count))
}

// RecordCalibrationRuns adds n back-test runs to the counter.
func RecordCalibrationRuns(n int) {
	globalManager.calibrationRuns.Add(float64(n))
}

// ObserveSimulationDuration records the wall time of one simulation run.
func ObserveSimulationDuration(start time.Time) {
	globalManager.simulationDuration.Observe(time.Since(start).Seconds())
}

// RecordLeaderboardBuild increments the leaderboard build counter.
func RecordLeaderboardBuild() {
	globalManager.leaderboardBuilds.Inc()
}

// ObserveStoreQuery records the duration of one store query.
func ObserveStoreQuery(query string, start time.Time) {
	globalManager.storeQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
