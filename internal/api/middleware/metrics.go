package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feelins/flask-admin/pkg/metrics"
)

// Metrics 请求计数与耗时中间件，route 取路由模板以控制标签基数
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
