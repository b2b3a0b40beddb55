package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/quickcart/backend/config"
)

// SetupRouter creates and configures the Gin router. gatherer may be nil,
// in which case /metrics is not exposed.
func SetupRouter(cfg *config.Config, handler *Handler, gatherer prometheus.Gatherer) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		v1.GET("/platforms", handler.ListPlatforms)
		v1.POST("/platforms/:platform/costs", handler.PlatformCosts)
		v1.POST("/products/select", handler.SelectProduct)

		v1.POST("/carts", handler.CreateCart)
		carts := v1.Group("/carts/:cartId")
		{
			carts.GET("", handler.GetCart)
			carts.POST("/items", handler.AddItem)
			carts.DELETE("/items", handler.RemoveItem)
			carts.POST("/results", handler.RecordResults)
			carts.POST("/search", handler.Search)
			carts.PUT("/selection", handler.SetSelection)
			carts.GET("/summary", handler.Summary)
			carts.POST("/optimize", handler.Optimize)
			carts.POST("/apply", handler.ApplyAssignment)
		}
	}

	return router
}
