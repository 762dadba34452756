package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "diagnostic"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	audits       *prometheus.CounterVec
	plans        *prometheus.CounterVec
	escalations  prometheus.Counter
	syncOutcomes *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audits_total",
			Help:      "Completed audits by diagnosed bottleneck.",
		}, []string{"bottleneck"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plans_total",
			Help:      "Generated plans by bottleneck and self-reported blocker.",
		}, []string{"bottleneck", "soft_bottleneck"}),
		escalations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prescription_skips_total",
			Help:      "Prescriptions skipped and escalated to a smaller step.",
		}),
		syncOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_tasks_total",
			Help:      "Audit sync tasks by record kind and outcome.",
		}, []string{"kind", "outcome"}),
		syncDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Time spent writing an audit record to all sinks.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.audits, m.plans, m.escalations, m.syncOutcomes, m.syncDuration, m.httpRequests, m.httpDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveAudit(bottleneck string) {
	m.audits.WithLabelValues(bottleneck).Inc()
}

func (m *Metrics) ObservePlan(bottleneck, soft string) {
	m.plans.WithLabelValues(bottleneck, soft).Inc()
}

func (m *Metrics) ObserveSkip() {
	m.escalations.Inc()
}

func (m *Metrics) ObserveSync(kind string, err error, elapsed time.Duration) {
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	m.syncOutcomes.WithLabelValues(kind, outcome).Inc()
	m.syncDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
