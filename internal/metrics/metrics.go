package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const namespace = "urops"

const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// External dependencies whose failures are counted
const (
	DependencyAI      = "ai"
	DependencyEmail   = "email"
	DependencyStorage = "storage"
)

// Metrics holds the application collectors. A nil *Metrics is valid and
// records nothing, which keeps services usable without a registry.
type Metrics struct {
	registry          *prometheus.Registry
	numberAllocations *prometheus.CounterVec
	numberRetries     prometheus.Counter
	stageTransitions  *prometheus.CounterVec
	stageIgnored      *prometheus.CounterVec
	externalFailures  *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	jobRuns           *prometheus.CounterVec
	jobDuration       *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry together with the Go and
// process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(reg)
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		numberAllocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "number_allocations_total",
			Help:      "Document numbers allocated, by document type and outcome.",
		}, []string{"type", "outcome"}),
		numberRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "number_allocation_retries_total",
			Help:      "Issue attempts retried after a duplicate document number.",
		}),
		stageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_stage_transitions_total",
			Help:      "Applied project workflow transitions.",
		}, []string{"event", "from", "to"}),
		stageIgnored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "project_stage_events_ignored_total",
			Help:      "Workflow events that did not change the project.",
		}, []string{"event"}),
		externalFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "external_failures_total",
			Help:      "Failed calls to external services.",
		}, []string{"dependency"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status class.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by job and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Background job run duration.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"job"}),
	}

	reg.MustRegister(
		m.numberAllocations,
		m.numberRetries,
		m.stageTransitions,
		m.stageIgnored,
		m.externalFailures,
		m.httpRequests,
		m.httpDuration,
		m.jobRuns,
		m.jobDuration,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAllocation records a number allocation attempt
func (m *Metrics) ObserveAllocation(docType string, err error) {
	if m == nil {
		return
	}
	m.numberAllocations.WithLabelValues(docType, classify(err)).Inc()
}

// IncAllocationRetry records a retried issue after a duplicate number
func (m *Metrics) IncAllocationRetry() {
	if m == nil {
		return
	}
	m.numberRetries.Inc()
}

// ObserveTransition records a workflow event outcome
func (m *Metrics) ObserveTransition(event, from, to string, applied bool) {
	if m == nil {
		return
	}
	if !applied {
		m.stageIgnored.WithLabelValues(event).Inc()
		return
	}
	m.stageTransitions.WithLabelValues(event, from, to).Inc()
}

// IncExternalFailure records a failed call to an external dependency
func (m *Metrics) IncExternalFailure(dependency string) {
	if m == nil {
		return
	}
	m.externalFailures.WithLabelValues(dependency).Inc()
}

// ObserveRequest records an HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ObserveJob records a background job run
func (m *Metrics) ObserveJob(job string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, classify(err)).Inc()
	m.jobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
