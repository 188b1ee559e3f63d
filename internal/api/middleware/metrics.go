package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"schoolhub/timetable/pkg/metrics"
)

// Metrics Prometheus 请求计数与耗时中间件
// 以路由模板作为标签，未匹配路由统一记为 "unmatched"
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
