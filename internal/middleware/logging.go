package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/humexxx/capital-galaxy/internal/logger"
	"github.com/humexxx/capital-galaxy/internal/uuid"
)

const requestIDKey = "requestID"

// RequestLogging tags every request with an id, echoes it in X-Request-ID,
// and logs method, path, status, size and latency once the handler returns.
// Health probes are not logged.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.New()
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		if c.FullPath() == "/api/health" {
			return
		}

		logger.Get().Infow("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
