package jobmetrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("insights_warmup").End(nil))
	err := errors.New("redis down")
	require.ErrorIs(t, m.Track("insights_warmup").End(err), err)
	m.SetLowStock("P14", 4)

	rr := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	require.Contains(t, body, `pantry_jobs_total{job="insights_warmup",status="success"} 1`)
	require.Contains(t, body, `pantry_jobs_failures_total{job="insights_warmup"} 1`)
	require.Contains(t, body, `pantry_low_stock_items{unit="P14"} 4`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("x").End(nil))
	m.SetLowStock("P10", 1)
}
