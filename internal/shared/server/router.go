package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"resume-ranker/internal/ranking"
	"resume-ranker/internal/services/health"
	"resume-ranker/internal/shared/config"
	"resume-ranker/internal/shared/metrics"
	"resume-ranker/internal/shared/server/middleware"
	"resume-ranker/internal/shared/server/respond"
	"resume-ranker/internal/shared/telemetry"
	"resume-ranker/internal/usage"
)

const (
	rankRateGroup     = "RANK"
	multipartMemory   = 8 << 20
	readHeaderTimeout = 10 * time.Second
)

// RouterDeps bundles handler dependencies for router construction.
type RouterDeps struct {
	Config         config.Config
	RankingHandler *ranking.Handler
	UsageHandler   *usage.Handler
	Health         *health.Service
	RateLimiter    *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.MaxMultipartMemory = multipartMemory

	cfg := deps.Config
	// Forwarded headers are honoured only from listed proxies.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		telemetry.Warn("router.trusted_proxies", map[string]any{"error": err.Error()})
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.ClientToken(cfg.CookieSecure),
		middleware.RateLimit(rateLimitConfig(cfg, deps.RateLimiter)),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService(nil)
	}
	r.GET("/health", func(c *gin.Context) {
		report := healthSvc.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	r.GET("/metrics", metrics.Handler())

	if deps.RankingHandler != nil {
		deps.RankingHandler.RegisterRoutes(r)
	}
	if deps.UsageHandler != nil {
		deps.UsageHandler.RegisterRoutes(r)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Route not found", nil)
	})
	return r
}

// rateLimitConfig throttles POST /rank per client IP. Other routes share a
// looser default bucket.
func rateLimitConfig(cfg config.Config, limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 5
	}
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			rankRateGroup: {Rate: rps, Burst: burst},
			"DEFAULT":     {Rate: rps * 10, Burst: burst * 10},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.Request.URL.Path == "/rank" {
				return rankRateGroup
			}
			return ""
		},
		Limiter: limiter,
	}
}

// NewHTTPServer wraps the engine in an http.Server with header timeouts set.
func NewHTTPServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              Addr(port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
