package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/replenishment-service/internal/config"
)

// NewWorkerRouter builds the worker's operational surface. The health
// endpoint reports liveness and the effective processing configuration; it
// never exposes internal retry state.
func NewWorkerRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "Inventory Event Processor",
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"configuration": gin.H{
				"supplier_api_url": cfg.Supplier.BaseURL,
				"retry_attempts":   cfg.Retry.MaxAttempts,
				"timeout_seconds":  cfg.Supplier.TimeoutSeconds,
			},
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
