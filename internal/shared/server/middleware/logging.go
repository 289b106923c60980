package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log.
const (
	LogTeamIDKey     = "teamId"
	LogIssueCountKey = "issueCount"
	LogEventTypeKey  = "slackEventType"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		for _, key := range []string{LogTeamIDKey, LogIssueCountKey, LogEventTypeKey} {
			if val, ok := c.Get(key); ok {
				fields[key] = val
			}
		}
		telemetry.Info("request.complete", fields)
	}
}
