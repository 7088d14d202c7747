package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	IndividualsCreated  prometheus.Counter
	IndividualsDeleted  prometheus.Counter
	IndividualsRestored prometheus.Counter
	RequestDuration     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		IndividualsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "persreg_individuals_created_total",
			Help: "Total number of individual records created",
		}),
		IndividualsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "persreg_individuals_deleted_total",
			Help: "Total number of soft-delete operations applied",
		}),
		IndividualsRestored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "persreg_individuals_restored_total",
			Help: "Total number of restore operations applied",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "persreg_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// ObserveRequest records one request's latency. Safe on a nil receiver so
// callers don't have to guard test wiring.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, statusClass(status)).Observe(seconds)
}

// statusClass collapses statuses into 2xx/4xx/5xx to keep cardinality low.
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
