package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDecision(t *testing.T) {
	m := New()
	m.ObserveDecision("time:list", OutcomeLimited)
	m.ObserveDecision("time:list", OutcomeLimited)
	m.ObserveDecision("time:list", OutcomeDenied)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("time:list", OutcomeLimited)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("time:list", OutcomeDenied)))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveDecision("x:y", OutcomeGranted) })
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/items/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hrms_http_requests_total")
}
