package http

import (
	"github.com/gin-gonic/gin"

	"github.com/tarkovlens/scanner/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health + capability flags
	router.GET("/", handler.HealthCheck)

	// Scan family
	router.POST("/scan", handler.Scan)
	router.GET("/templates", handler.ListTemplates)
	router.POST("/scan-icon", handler.ScanIcon)
	router.POST("/scan-ocr", handler.ScanOCR)
	router.GET("/ocr/stats", handler.OCRStats)
	router.POST("/scan-gear", handler.ScanGear)

	// Hover scanner
	hover := router.Group("/hover")
	{
		hover.POST("/start", handler.HoverStart)
		hover.POST("/stop", handler.HoverStop)
		hover.GET("/status", handler.HoverStatus)
	}

	// Prices
	router.POST("/refresh-prices", handler.RefreshPrices)
	router.GET("/prices/status", handler.PricesStatus)

	// Scroll monitor
	scroll := router.Group("/scroll")
	{
		scroll.POST("/start", handler.ScrollStart)
		scroll.POST("/stop", handler.ScrollStop)
		scroll.GET("/check", handler.ScrollCheck)
	}

	return router
}
