package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.AuthExchange("ok")
	m.AuthExchange("ok")
	m.AuthExchange("state_mismatch")
	m.Report("analyze", nil)
	m.Report("compare", errors.New("boom"))
	m.DatasetLoad("sample", nil)
	m.HTTPRequest(http.MethodGet, "/", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authExchanges.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authExchanges.WithLabelValues("state_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports.WithLabelValues("compare", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.datasetLoads.WithLabelValues("sample", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.AuthExchange("ok")
		m.Report("analyze", nil)
		m.DatasetLoad("upload", nil)
		m.HTTPRequest(http.MethodGet, "/", 200, time.Second)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.AuthExchange("ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `auto_eda_auth_exchanges_total{result="ok"} 1`)
}
