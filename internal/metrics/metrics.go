// Package metrics exposes Prometheus collectors for HTTP traffic and
// authorization outcomes on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authorization outcomes.
const (
	OutcomeGranted = "granted"
	OutcomeLimited = "limited"
	OutcomeDenied  = "denied"
)

type Metrics struct {
	registry      *prometheus.Registry
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	authDecisions *prometheus.CounterVec
	timerEvents   *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrms_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hrms_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		authDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrms_authorization_decisions_total",
			Help: "Authorization checks by permission key and outcome",
		}, []string{"key", "outcome"}),
		timerEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hrms_timer_events_total",
			Help: "Timer lifecycle transitions",
		}, []string{"event"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision is safe on a nil receiver.
func (m *Metrics) ObserveDecision(key, outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(key, outcome).Inc()
}

// ObserveTimer is safe on a nil receiver.
func (m *Metrics) ObserveTimer(event string) {
	if m == nil {
		return
	}
	m.timerEvents.WithLabelValues(event).Inc()
}

// GinMiddleware records one sample per request, labelled by route template.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
