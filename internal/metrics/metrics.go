package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPLatency tracks request latency per route/status.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_requests_latency_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// CommentOps counts comment mutations by action and outcome.
	CommentOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_comment_operations_total",
			Help: "Comment create/update/delete operations.",
		},
		[]string{"action", "outcome"}, // action: create|update|delete, outcome: ok|denied|error
	)

	// AuthOps counts register/login attempts by outcome.
	AuthOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "board_auth_operations_total",
			Help: "Registration and login attempts.",
		},
		[]string{"action", "outcome"},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(HTTPLatency)
	prometheus.MustRegister(CommentOps)
	prometheus.MustRegister(AuthOps)
}

// GinMiddleware records request latency using the matched route pattern
// so path parameters don't explode label cardinality.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPLatency.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
