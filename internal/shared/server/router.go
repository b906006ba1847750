package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vaniusmax/projeto-finops/internal/analytics"
	"github.com/vaniusmax/projeto-finops/internal/anomaly"
	"github.com/vaniusmax/projeto-finops/internal/costs"
	"github.com/vaniusmax/projeto-finops/internal/forecast"
	"github.com/vaniusmax/projeto-finops/internal/insights"
	"github.com/vaniusmax/projeto-finops/internal/shared/config"
	"github.com/vaniusmax/projeto-finops/internal/shared/metrics"
	"github.com/vaniusmax/projeto-finops/internal/shared/server/middleware"
	"github.com/vaniusmax/projeto-finops/internal/shared/server/respond"
)

// RouterDeps carries the handlers wired by bootstrap.
type RouterDeps struct {
	Config   config.Config
	Imports  *costs.Handler
	Metrics  *analytics.Handler
	Anomaly  *anomaly.Handler
	Forecast *forecast.Handler
	Insights *insights.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(rateLimitConfig()),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	deps.Imports.RegisterRoutes(api)
	deps.Metrics.RegisterRoutes(api)
	deps.Anomaly.RegisterRoutes(api)
	deps.Forecast.RegisterRoutes(api)
	deps.Insights.RegisterRoutes(api)

	return r
}

// rateLimitConfig keeps the LLM-backed routes on a much tighter budget than
// the plain analytics reads.
func rateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 20, Burst: 40},
			"LLM":     {Rate: 0.5, Burst: 3},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method != http.MethodPost {
				return "DEFAULT"
			}
			switch c.FullPath() {
			case "/api/v1/imports/:id/insights", "/api/v1/imports/:id/chat":
				return "LLM"
			default:
				return "DEFAULT"
			}
		},
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
