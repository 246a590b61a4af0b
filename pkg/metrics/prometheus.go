// Package metrics provides Prometheus metrics for the rating engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector the engine emits.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Period processing
	periodsProcessed *prometheus.CounterVec
	periodDuration   prometheus.Histogram
	playersUpdated   prometheus.Counter
	playersInflated  prometheus.Counter
	samplesBuilt     prometheus.Counter
	contestsSkipped  prometheus.Counter

	// Core math
	solverIterations  prometheus.Histogram
	computationErrors prometheus.Counter

	// Backfill
	backfillRuns     prometheus.Counter
	backfillDuration prometheus.Histogram

	// Persistence
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec
}

var defaultManager *Manager

func init() { //nolint:gochecknoinits // global metrics registration, mirrors process lifetime
	defaultManager = NewManager()
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry sets a custom registry instead of a fresh one.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// NewManager creates a Manager and registers all collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "ladder",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.periodsProcessed = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "periods_processed_total",
		Help:      "Rating periods closed, by scope type.",
	}, []string{"scope_type"})

	m.periodDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "period_duration_seconds",
		Help:      "Wall time spent recomputing one period for one scope.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	m.playersUpdated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "players_updated_total",
		Help:      "Players whose rating was recomputed from samples.",
	})

	m.playersInflated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "players_inflated_total",
		Help:      "Players whose deviation was inflated for inactivity.",
	})

	m.samplesBuilt = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "samples_built_total",
		Help:      "Pairwise opponent samples emitted by the sample builder.",
	})

	m.contestsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "contests_skipped_total",
		Help:      "Contests dropped because their results could not be read.",
	})

	m.solverIterations = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "volatility_solver_iterations",
		Help:      "Iterations used by the volatility root search.",
		Buckets:   prometheus.LinearBuckets(1, 3, 10),
	})

	m.computationErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "computation_errors_total",
		Help:      "Non-finite results or non-convergent volatility solves.",
	})

	m.backfillRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "backfill_runs_total",
		Help:      "Full historical backfill runs started.",
	})

	m.backfillDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "backfill_duration_seconds",
		Help:      "Wall time of a full historical backfill.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
	})

	m.storeLatency = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_op_duration_seconds",
		Help:      "Latency of rating store operations, by operation.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"op"})

	m.storeErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_errors_total",
		Help:      "Rating store operation failures, by operation.",
	}, []string{"op"})
}

// Registry returns the registry backing the default manager, for exposition.
func Registry() *prometheus.Registry {
	return defaultManager.registry
}

// Package-level helpers against the default manager.

func RecordPeriodProcessed(scopeType string, seconds float64) {
	defaultManager.periodsProcessed.WithLabelValues(scopeType).Inc()
	defaultManager.periodDuration.Observe(seconds)
}

func AddPlayersUpdated(n int) {
	defaultManager.playersUpdated.Add(float64(n))
}

func AddPlayersInflated(n int) {
	defaultManager.playersInflated.Add(float64(n))
}

func AddSamplesBuilt(n int) {
	defaultManager.samplesBuilt.Add(float64(n))
}

func RecordContestSkipped() {
	defaultManager.contestsSkipped.Inc()
}

func RecordSolverIterations(n int) {
	defaultManager.solverIterations.Observe(float64(n))
}

func RecordComputationError() {
	defaultManager.computationErrors.Inc()
}

func RecordBackfillRun(seconds float64) {
	defaultManager.backfillRuns.Inc()
	defaultManager.backfillDuration.Observe(seconds)
}

func RecordStoreOp(op string, seconds float64) {
	defaultManager.storeLatency.WithLabelValues(op).Observe(seconds)
}

func RecordStoreError(op string) {
	defaultManager.storeErrors.WithLabelValues(op).Inc()
}
