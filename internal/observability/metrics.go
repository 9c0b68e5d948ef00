package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the service.
type Metrics struct {
	RequestDuration   *prometheus.HistogramVec
	RequestCounter    *prometheus.CounterVec
	ErrorCounter      *prometheus.CounterVec
	TicketsCreated    prometheus.Counter
	TicketsResolved   prometheus.Counter
	AnalyticsDuration prometheus.Histogram
}

// NewMetrics registers collectors on the default registry.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		RequestCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by path, method and status",
		}, []string{"path", "method", "status"}),
		ErrorCounter: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total errored HTTP requests by path, method and error code",
		}, []string{"path", "method", "code"}),
		TicketsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "Total tickets created",
		}),
		TicketsResolved: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_resolved_total",
			Help:      "Total tickets resolved",
		}),
		AnalyticsDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analytics_refresh_duration_seconds",
			Help:      "Duration of company rollup refreshes",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordRequest observes one completed request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
	m.RequestCounter.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError counts one errored request.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.ErrorCounter.WithLabelValues(path, method, code).Inc()
}
