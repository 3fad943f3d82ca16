// Package metrics exposes Prometheus collectors for HTTP traffic and user
// engagement.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forkhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "forkhub_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	// kind: favorite, like, follow, comment; action: add, remove
	EngagementEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_engagement_events_total",
			Help: "Successful engagement writes",
		},
		[]string{"kind", "action"},
	)

	SignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forkhub_signins_total",
			Help: "Sign-in attempts by result",
		},
		[]string{"result"},
	)

	SignUps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "forkhub_signups_total",
			Help: "Accounts created",
		},
	)
)

func RecordEngagement(kind, action string) {
	EngagementEvents.WithLabelValues(kind, action).Inc()
}

func RecordSignIn(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	SignIns.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		HTTPActiveRequests.Inc()
		start := time.Now()

		c.Next()

		HTTPActiveRequests.Dec()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
