package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsRequests(t *testing.T) {
	rec := newRecorder(t, http.StatusOK, `{"query_status":"ok","data":[]}`)
	reg := prometheus.NewRegistry()
	c := openTestClient(t, rec.srv.URL, WithMetrics(reg))

	_, err := c.GetTagList(context.Background())
	require.NoError(t, err)
	_, err = c.GetTagList(context.Background())
	require.NoError(t, err)
	_, err = c.GetIOCThreatTypes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.metrics.requests.WithLabelValues("tag_list", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.requests.WithLabelValues("types", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.metrics.duration))
}

func TestMetrics_RecordsStatusAndTransportErrors(t *testing.T) {
	rec := newRecorder(t, http.StatusInternalServerError, "oops")
	reg := prometheus.NewRegistry()
	c := openTestClient(t, rec.srv.URL, WithMetrics(reg))

	_, err := c.GetMalwareList(context.Background())
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.requests.WithLabelValues("malware_list", "500")))

	_, _, err = c.Execute(context.Background(), http.MethodPost, nil, WithURL("http://127.0.0.1:1/"))
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.requests.WithLabelValues("unknown", "error")))
}

func TestMetrics_SharedRegistry(t *testing.T) {
	rec := newRecorder(t, http.StatusOK, `{"query_status":"ok"}`)
	reg := prometheus.NewRegistry()

	first := openTestClient(t, rec.srv.URL, WithMetrics(reg))
	second := openTestClient(t, rec.srv.URL, WithMetrics(reg))

	_, err := first.GetTagList(context.Background())
	require.NoError(t, err)
	_, err = second.GetTagList(context.Background())
	require.NoError(t, err)

	assert.Same(t, first.metrics.requests, second.metrics.requests)
	assert.Equal(t, float64(2), testutil.ToFloat64(first.metrics.requests.WithLabelValues("tag_list", "200")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics
	assert.NotPanics(t, func() { m.observe("types", "200", 0) })
}
