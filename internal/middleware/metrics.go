package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fernandosserra/unython/internal/infra"
)

// Metrics records request count and latency per route template (never the
// raw path, which would explode label cardinality with ids).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		infra.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		infra.HTTPDuracao.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
