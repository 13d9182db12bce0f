package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/fastctx/pkg/fastctx"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "fastctx").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for Set duration.
	// Default: small sub-millisecond to 100ms buckets.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
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
		Namespace: "fastctx",
		Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics records store activity as Prometheus metrics. It implements
// fastctx.Observer.
//
// Metrics collected (with the default namespace):
//   - fastctx_sets_total: Counter of Set calls by store
//   - fastctx_notifications_total: Counter of listener invocations by store
//   - fastctx_set_duration_seconds: Histogram of merge+fan-out duration
//   - fastctx_selector_evaluations_total: Counter of selector runs by store and result
//   - fastctx_subscriptions: Gauge of registered listeners by store
//   - fastctx_active_scopes: Gauge of open scopes by store
type Metrics struct {
	setsTotal           *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	setDuration         *prometheus.HistogramVec
	selectorEvaluations *prometheus.CounterVec
	subscriptions       *prometheus.GaugeVec
	activeScopes        *prometheus.GaugeVec
}

var _ fastctx.Observer = (*Metrics)(nil)

// NewMetrics registers the store metrics and returns the observer.
// It panics if the metrics are already registered on the registry, like
// promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		setsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sets_total",
			Help:        "Total number of store Set calls",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of listener notifications",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		setDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "set_duration_seconds",
			Help:        "Duration of merge, commit and fan-out for one Set",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		selectorEvaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "selector_evaluations_total",
			Help:        "Total number of selector re-evaluations by result",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "result"}),

		subscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "subscriptions",
			Help:        "Number of registered store listeners",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		activeScopes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_scopes",
			Help:        "Number of open store scopes",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),
	}
}

// SetStarted implements fastctx.Observer.
func (m *Metrics) SetStarted(e fastctx.SetEvent) func(fastctx.SetResult) {
	m.setsTotal.WithLabelValues(e.Store).Inc()
	return func(r fastctx.SetResult) {
		m.notificationsTotal.WithLabelValues(e.Store).Add(float64(r.Notified))
		m.setDuration.WithLabelValues(e.Store).Observe(r.Duration.Seconds())
	}
}

// SelectorEvaluated implements fastctx.Observer.
func (m *Metrics) SelectorEvaluated(store string, changed bool) {
	result := "unchanged"
	if changed {
		result = "changed"
	}
	m.selectorEvaluations.WithLabelValues(store, result).Inc()
}

// SubscriptionsChanged implements fastctx.Observer.
func (m *Metrics) SubscriptionsChanged(store string, delta int) {
	m.subscriptions.WithLabelValues(store).Add(float64(delta))
}

// ScopesChanged implements fastctx.Observer.
func (m *Metrics) ScopesChanged(store string, delta int) {
	m.activeScopes.WithLabelValues(store).Add(float64(delta))
}
