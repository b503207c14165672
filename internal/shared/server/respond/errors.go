package respond

import (
	"github.com/gin-gonic/gin"

	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/shared/util"
)

// Error sends the standard error body {success:false, error, code} merged with
// extra. Keys in extra never override the three standard keys.
func Error(c *gin.Context, status int, code, message string, extra map[string]any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if token := c.GetString("clientToken"); token != "" {
		fields["token_hash"] = util.TokenFingerprint(token)
	}
	if status >= 500 {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	c.AbortWithStatusJSON(status, ErrorBody(code, message, extra))
}

// ErrorBody builds the error payload without writing it.
func ErrorBody(code, message string, extra map[string]any) gin.H {
	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}
	body["success"] = false
	body["error"] = message
	body["code"] = code
	return body
}
