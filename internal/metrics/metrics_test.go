package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAnalytics(t *testing.T) {
	o := NewObserver()
	o.ObserveAnalytics("statistics", 10*time.Millisecond, nil)
	o.ObserveAnalytics("statistics", 5*time.Millisecond, errors.New("boom"))
	o.ObserveAnalytics("histogram", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(o.runs.WithLabelValues("statistics", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.runs.WithLabelValues("statistics", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(o.duration))
}

func TestGinMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	o := NewObserver()
	r := gin.New()
	r.Use(o.GinMiddleware())
	r.GET("/api/parcels/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/parcels/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(o.httpRequests.WithLabelValues("/api/parcels/:id", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.httpRequests.WithLabelValues("unmatched", "404")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	o := NewObserver()
	o.ObserveAnalytics("study", time.Millisecond, nil)

	rec := httptest.NewRecorder()
	o.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `assessr_analytics_runs_total{kind="study",status="ok"} 1`))
}
