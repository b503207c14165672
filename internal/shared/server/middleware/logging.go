package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/shared/util"
)

// Logging emits a structured log per request. The client token is logged as a
// truncated sha256 so raw tokens never reach the logs.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		scored, _ := c.Get("rankScored")
		skipped, _ := c.Get("rankSkipped")

		telemetry.Info("request.complete", map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"token_hash":  util.TokenFingerprint(ClientTokenFromContext(c)),
			"scored":      scored,
			"skipped":     skipped,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		})
	}
}
