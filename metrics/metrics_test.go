// server/metrics/metrics_test.go
package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Operation("create_note", nil)
		m.CascadeDeleted("note", 2)
		m.ShareResolution("ok")
		m.HTTPRequest("GET", "/api/notes", 200, 0.01)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Operation("delete_note", nil)
	m.Operation("delete_note", errors.New("boom"))
	m.Operation("delete_note", errors.New("boom"))
	m.CascadeDeleted("note", 3)
	m.CascadeDeleted("note", 0)
	m.ShareResolution("expired")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("delete_note", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("delete_note", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cascadeDeletedTotal.WithLabelValues("note")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shareResolutionsTotal.WithLabelValues("expired")))
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(410))
	assert.Equal(t, "5xx", statusClass(500))
}
