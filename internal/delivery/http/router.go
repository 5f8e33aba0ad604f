package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mshra/Multi-Vendor-Service/internal/delivery/http/middleware"
	"github.com/mshra/Multi-Vendor-Service/internal/usecase"
)

const maxBodyBytes = 1 << 20 // 1 MB

// RouterDeps carries the dependencies the router wires into handlers.
type RouterDeps struct {
	SubmitUC        *usecase.SubmitJobUsecase
	GetJobUC        *usecase.GetJobUsecase
	CompleteUC      *usecase.CompleteJobUsecase
	Logger          *zap.Logger
	RateLimitPerMin int
}

// NewRouter creates and configures the Gin router with all routes and middleware.
func NewRouter(deps *RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.BodySizeLimit(maxBodyBytes))

	// Metrics endpoint (no rate limiting)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Health check (no rate limiting)
		healthHandler := NewHealthHandler(deps.Logger)
		v1.GET("/health", healthHandler.Health)

		// Jobs (with rate limiting)
		jobHandler := NewJobHandler(deps.SubmitUC, deps.GetJobUC, deps.Logger)
		jobs := v1.Group("/jobs")
		if deps.RateLimitPerMin > 0 {
			jobs.Use(middleware.RateLimiter(deps.RateLimitPerMin))
		}
		jobs.POST("", jobHandler.Submit)
		jobs.GET("/:id", jobHandler.GetByID)

		// WebSocket for real-time updates
		streamHandler := NewStreamHandler(deps.GetJobUC, deps.Logger)
		jobs.GET("/:id/stream", streamHandler.Stream)

		// Vendor result callbacks (not rate limited; vendors retry on failure)
		webhookHandler := NewWebhookHandler(deps.CompleteUC, deps.Logger)
		v1.POST("/vendor-webhook/:vendor", webhookHandler.Receive)
	}

	return router
}
