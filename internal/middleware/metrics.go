package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-identity/identity/internal/metrics"
)

// HTTPMetrics records request count and latency per route. The route
// template is used rather than the raw path so path parameters do not
// explode label cardinality.
func HTTPMetrics(recorder metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		recorder.RecordHTTPRequest(
			c.Request.Method, path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
