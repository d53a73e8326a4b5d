// server/metrics/metrics.go

// Package metrics exposes Prometheus instruments for the note store.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "notesync"

type Metrics struct {
	operationsTotal       *prometheus.CounterVec
	cascadeDeletedTotal   *prometheus.CounterVec
	shareResolutionsTotal *prometheus.CounterVec
	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Store operations by name and result.",
		}, []string{"operation", "result"}),
		cascadeDeletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_deleted_total",
			Help:      "Records removed by cascading deletes, by kind.",
		}, []string{"kind"}),
		shareResolutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_link_resolutions_total",
			Help:      "Public share link resolutions by result.",
		}, []string{"result"}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		m.operationsTotal,
		m.cascadeDeletedTotal,
		m.shareResolutionsTotal,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	)
	return m
}

func (m *Metrics) Operation(name string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operationsTotal.WithLabelValues(name, result).Inc()
}

func (m *Metrics) CascadeDeleted(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.cascadeDeletedTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) ShareResolution(result string) {
	if m == nil {
		return
	}
	m.shareResolutionsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) HTTPRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(seconds)
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
