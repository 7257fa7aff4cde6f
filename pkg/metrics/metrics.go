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
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	sosActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_activations_total",
		Help: "SOS activations by trigger type",
	}, []string{"trigger"})

	harmfulScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "message_scans_total",
		Help: "Message scans by resulting category",
	}, []string{"category"})
)

// Middleware 记录每个请求的计数与耗时
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// CountSOSActivation 记录一次 SOS 激活
func CountSOSActivation(trigger string) {
	sosActivations.WithLabelValues(trigger).Inc()
}

// CountScan 记录一次消息扫描结果
func CountScan(category string) {
	harmfulScans.WithLabelValues(category).Inc()
}
