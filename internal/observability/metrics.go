package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"imtrack"`
}

// Metrics is nil-safe: every method on a nil *Metrics is a no-op, so callers
// can use Current() without checking whether metrics are enabled.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
	httpInflight  prometheus.Gauge
	notifications *prometheus.CounterVec
	notifyLatency *prometheus.HistogramVec
	conversions   *prometheus.CounterVec
	convertTime   *prometheus.HistogramVec
	certificates  *prometheus.CounterVec
	lifecycle     *prometheus.CounterVec
	reminders     *prometheus.CounterVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init builds the process-wide metrics once. It returns nil when disabled.
func Init(cfg MetricsConfig) *Metrics {
	initOnce.Do(func() {
		if !cfg.Enabled {
			return
		}
		instance = NewMetrics(cfg.Namespace)
	})
	return instance
}

func Current() *Metrics {
	return instance
}

// NewMetrics registers a fresh set of collectors on a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "imtrack"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "HTTP requests currently being served.",
		}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_attempts_total",
			Help:      "Email transport attempts by transport and outcome.",
		}, []string{"transport", "outcome"}),
		notifyLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "notification_attempt_duration_seconds",
			Help:      "Email transport attempt latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"transport"}),
		conversions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_attempts_total",
			Help:      "DOCX to PDF conversion attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		convertTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_attempt_duration_seconds",
			Help:      "Conversion attempt latency.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"strategy"}),
		certificates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "certificates_total",
			Help:      "Certificate issuance outcomes.",
		}, []string{"outcome"}),
		lifecycle: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_increments_total",
			Help:      "Stage counter increments by counter and rule.",
		}, []string{"counter", "rule"}),
		reminders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deadline_reminders_total",
			Help:      "Deadline reminders by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) IncInflight() {
	if m == nil {
		return
	}
	m.httpInflight.Inc()
}

func (m *Metrics) DecInflight() {
	if m == nil {
		return
	}
	m.httpInflight.Dec()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveNotification matches the notifier transport hook signature.
func (m *Metrics) ObserveNotification(transport string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(transport, outcome(ok)).Inc()
	m.notifyLatency.WithLabelValues(transport).Observe(elapsed.Seconds())
}

// ObserveConversion matches the converter attempt hook signature.
func (m *Metrics) ObserveConversion(strategy string, ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(strategy, outcome(ok)).Inc()
	m.convertTime.WithLabelValues(strategy).Observe(elapsed.Seconds())
}

func (m *Metrics) IncCertificate(result string) {
	if m == nil {
		return
	}
	m.certificates.WithLabelValues(result).Inc()
}

func (m *Metrics) IncLifecycle(counter, rule string) {
	if m == nil || counter == "" {
		return
	}
	m.lifecycle.WithLabelValues(counter, rule).Inc()
}

func (m *Metrics) IncReminder(kind string, ok bool) {
	if m == nil {
		return
	}
	m.reminders.WithLabelValues(kind, outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
