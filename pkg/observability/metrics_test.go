package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("subscout")

	c.RecordScan("ok")
	c.RecordScan("ok")
	c.RecordInsights("pain_point", 3)
	c.RecordUpstream("reddit", errors.New("503"))
	c.RecordHTTP("GET", "/api/apps", 200, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Scans.WithLabelValues("ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.InsightsCreated.WithLabelValues("pain_point")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.UpstreamRequests.WithLabelValues("reddit", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("GET", "/api/apps", "200")))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordScan("ok")
		c.RecordInsights("trend", 1)
		c.RecordUpstream("gemini", nil)
		c.SetBreakerState("gemini", 2)
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("subscout")
	c.RecordScan("empty")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `subscout_subreddit_scans_total{outcome="empty"} 1`)
}
