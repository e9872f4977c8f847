package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/booking-pipeline/internal/config"     // rate limit configuration
	"github.com/iliyamo/booking-pipeline/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/booking-pipeline/internal/middleware" // webhook auth, JWT and rate limiting
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check
// used by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterWebhook registers the bot-facing ingestion endpoint.  The
// route is guarded by the shared-secret webhook token and by the Redis
// token bucket; both run before the request body is even bound so
// unauthenticated or flooding callers never reach the pipeline.
func RegisterWebhook(e *echo.Echo, h *handler.WebhookHandler, tokenHash string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/webhook")
	g.Use(middleware.NewTokenBucket(rlCfg, rdb))
	g.Use(middleware.WebhookAuth(tokenHash))
	g.POST("/transactions", h.Ingest)
}

// RegisterSummaries registers the dashboard read endpoints: the two
// rollups plus the per-date transaction drill-down.  All routes require
// a valid access token issued by the dashboard backend; the rebuild
// repair endpoint additionally requires the ADMIN role.
func RegisterSummaries(e *echo.Echo, h *handler.SummaryHandler, jwtSecret string) {
	g := e.Group("/v1/summaries")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "STAFF"))
	g.GET("/daily/:date", h.GetDaily)
	g.GET("/agents/:date", h.GetAgents)

	tx := e.Group("/v1/transactions")
	tx.Use(middleware.JWTAuth(jwtSecret))
	tx.Use(middleware.RequireRole("ADMIN", "STAFF"))
	tx.GET("/:date", h.GetTransactions)

	admin := e.Group("/v1/summaries")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/rebuild", h.Rebuild)
}
