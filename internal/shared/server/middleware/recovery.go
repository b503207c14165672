package middleware

import (
	"errors"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/server/respond"
	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/shared/util"
)

// Recovery turns a handler panic into a 500 error body. When the client has
// already gone away nothing is written back.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			brokenPipe := isBrokenPipe(rec)
			fields := map[string]any{
				"request_id":  RequestIDFromContext(c),
				"token_hash":  util.TokenFingerprint(ClientTokenFromContext(c)),
				"error":       rec,
				"path":        c.Request.URL.Path,
				"method":      c.Request.Method,
				"broken_pipe": brokenPipe,
			}
			if !brokenPipe {
				fields["stack"] = string(debug.Stack())
			}
			telemetry.Error("request.panic", fields)
			metrics.IncPanics()

			if brokenPipe {
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
		}()
		c.Next()
	}
}

func isBrokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}
