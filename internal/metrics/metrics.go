// Package metrics exposes Prometheus instrumentation for analytics runs and
// HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives analytics timings from the services
type Recorder interface {
	ObserveAnalytics(kind string, d time.Duration, err error)
}

// Observer implements Recorder on a dedicated Prometheus registry
type Observer struct {
	registry     *prometheus.Registry
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// NewObserver creates an observer with its own registry, including the Go
// runtime and process collectors
func NewObserver() *Observer {
	o := &Observer{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessr_analytics_runs_total",
			Help: "Analytics computations by kind and outcome",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assessr_analytics_duration_seconds",
			Help:    "Latency of analytics computations including data loading",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessr_http_requests_total",
			Help: "HTTP requests by route template and status code",
		}, []string{"route", "status"}),
	}

	o.registry.MustRegister(o.runs)
	o.registry.MustRegister(o.duration)
	o.registry.MustRegister(o.httpRequests)
	o.registry.MustRegister(collectors.NewGoCollector())
	o.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return o
}

// ObserveAnalytics records one analytics run
func (o *Observer) ObserveAnalytics(kind string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.runs.WithLabelValues(kind, status).Inc()
	o.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (o *Observer) Registry() *prometheus.Registry {
	return o.registry
}

// GinMiddleware counts requests by matched route template so path parameters
// don't explode label cardinality
func (o *Observer) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		o.httpRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Nop discards analytics observations
type Nop struct{}

// ObserveAnalytics implements Recorder
func (Nop) ObserveAnalytics(string, time.Duration, error) {}
