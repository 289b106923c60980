package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"whchecker-backend/internal/analyses"
	"whchecker-backend/internal/services/health"
	"whchecker-backend/internal/shared/config"
	"whchecker-backend/internal/shared/metrics"
	"whchecker-backend/internal/shared/server/middleware"
	"whchecker-backend/internal/shared/server/respond"
)

const (
	rateGroupAnalyze = "ANALYZE"
	rateGroupBatch   = "BATCH"
)

// SlackRoutes are the Slack endpoints; nil fields are not registered.
type SlackRoutes struct {
	Events        gin.HandlerFunc
	Interactions  gin.HandlerFunc
	Install       gin.HandlerFunc
	OAuthRedirect gin.HandlerFunc
}

// RouterDeps carries the handlers the router mounts.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	Health          *health.Service
	Slack           SlackRoutes
	RateLimiter     *middleware.RateLimiter
	Now             func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		report := deps.Health.Status(c.Request.Context())
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, report)
	})
	if deps.AnalysisHandler != nil {
		limited := api.Group("", middleware.RateLimit(analysisRateLimit(deps.RateLimiter)))
		deps.AnalysisHandler.RegisterRoutes(limited)
	}

	registerSlackRoutes(r, deps)
	return r
}

func analysisRateLimit(limiter *middleware.RateLimiter) middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: rateGroupAnalyze,
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/api/v1/analyze/batch" {
				return rateGroupBatch
			}
			return rateGroupAnalyze
		},
		Limiter: limiter,
		Rules: map[string]middleware.RateLimitRule{
			rateGroupAnalyze: {Rate: 2, Burst: 20},
			rateGroupBatch:   {Rate: 0.2, Burst: 3},
		},
	}
}

func registerSlackRoutes(r *gin.Engine, deps RouterDeps) {
	routes := deps.Slack
	slack := r.Group("/slack")
	if routes.Events != nil || routes.Interactions != nil {
		signed := slack.Group("", middleware.SlackSignature(deps.Config.Slack.SigningSecret, deps.Now))
		if routes.Events != nil {
			signed.POST("/events", routes.Events)
		}
		if routes.Interactions != nil {
			signed.POST("/interactions", routes.Interactions)
		}
	}
	if routes.Install != nil {
		slack.GET("/install", routes.Install)
	}
	if routes.OAuthRedirect != nil {
		slack.GET("/oauth_redirect", routes.OAuthRedirect)
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
