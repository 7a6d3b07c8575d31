package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/reactive/pkg/reactive"
)

// MetricsConfig configures the Prometheus hooks.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactive").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus hooks.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reactive",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// PrometheusHooks records runtime events as Prometheus metrics.
//
// Metrics collected:
//   - reactive_effect_runs_total: effect runs by status
//   - reactive_effect_duration_seconds: effect run duration
//   - reactive_flushes_total: effect queue flushes by status
//   - reactive_flush_duration_seconds: flush duration
//   - reactive_cyclic_effects_total: effects that exceeded the re-run budget
//   - reactive_watch_errors_total: watch failures by stage
//   - reactive_actions_total: actions by status
//   - reactive_action_duration_seconds: action duration
//   - reactive_transactions_total: named transactions by status
type PrometheusHooks struct {
	effectRuns     *prometheus.CounterVec
	effectDuration prometheus.Histogram
	flushes        *prometheus.CounterVec
	flushDuration  prometheus.Histogram
	cyclicEffects  prometheus.Counter
	watchErrors    *prometheus.CounterVec
	actions        *prometheus.CounterVec
	actionDuration prometheus.Histogram
	transactions   *prometheus.CounterVec
}

// Prometheus creates hooks that register their metrics with the configured
// registry. Registering twice with the same registry panics, as with
// promauto.
func Prometheus(opts ...MetricsOption) *PrometheusHooks {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	histogram := func(name, help string) prometheus.Histogram {
		return factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		})
	}

	return &PrometheusHooks{
		effectRuns:     counter("effect_runs_total", "Total number of effect runs", "status"),
		effectDuration: histogram("effect_duration_seconds", "Effect run duration in seconds"),
		flushes:        counter("flushes_total", "Total number of effect queue flushes", "status"),
		flushDuration:  histogram("flush_duration_seconds", "Effect queue flush duration in seconds"),
		cyclicEffects: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cyclic_effects_total",
			Help:        "Total number of effects stopped for re-triggering themselves",
			ConstLabels: config.ConstLabels,
		}),
		watchErrors:    counter("watch_errors_total", "Total number of watch getter and callback failures", "stage"),
		actions:        counter("actions_total", "Total number of actions run", "status"),
		actionDuration: histogram("action_duration_seconds", "Action duration in seconds"),
		transactions:   counter("transactions_total", "Total number of named transactions", "status"),
	}
}

func (p *PrometheusHooks) FlushStarted(int) func(int, error) {
	start := time.Now()
	return func(_ int, err error) {
		p.flushDuration.Observe(time.Since(start).Seconds())
		p.flushes.WithLabelValues(status(err)).Inc()
	}
}

func (p *PrometheusHooks) EffectRan(_ string, d time.Duration, err error) {
	p.effectDuration.Observe(d.Seconds())
	p.effectRuns.WithLabelValues(status(err)).Inc()
}

func (p *PrometheusHooks) TxStarted(string) func(error) {
	return func(err error) {
		p.transactions.WithLabelValues(status(err)).Inc()
	}
}

func (p *PrometheusHooks) ActionStarted(string) func(error) {
	start := time.Now()
	return func(err error) {
		p.actionDuration.Observe(time.Since(start).Seconds())
		p.actions.WithLabelValues(status(err)).Inc()
	}
}

func (p *PrometheusHooks) CyclicEffect(string, int) {
	p.cyclicEffects.Inc()
}

func (p *PrometheusHooks) WatchFailed(_, stage string, _ error) {
	p.watchErrors.WithLabelValues(stage).Inc()
}

// status keeps label cardinality fixed; node names never become labels.
func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

var _ reactive.Hooks = (*PrometheusHooks)(nil)
