package metrics

import (
	"io"
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

	m.FindDelivered("notes", SourceInterim)
	m.FindDelivered("notes", SourceInterim)
	m.FindDelivered("notes", SourceRemote)
	m.RemoteFailed("notes", "find")
	m.LateRemoteResult("notes")
	m.Uploaded("notes", KindUpsert, OutcomeGone)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.findResults.WithLabelValues("notes", SourceInterim)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.findResults.WithLabelValues("notes", SourceRemote)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remoteFailures.WithLabelValues("notes", "find")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lateResults.WithLabelValues("notes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("notes", KindUpsert, OutcomeGone)))
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	first, second := New(), New()

	first.Uploaded("notes", KindRemove, OutcomeOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.uploads.WithLabelValues("notes", KindRemove, OutcomeOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.uploads.WithLabelValues("notes", KindRemove, OutcomeOK)))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/{collection}", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dockeeper_server_http_requests_total{method="GET",route="/{collection}",status="200"} 1`)
	assert.Contains(t, string(body), "dockeeper_server_http_request_duration_seconds_bucket")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.FindDelivered("notes", SourceRemote)
		m.RemoteFailed("notes", "find")
		m.LateRemoteResult("notes")
		m.Uploaded("notes", KindUpsert, OutcomeOK)
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
