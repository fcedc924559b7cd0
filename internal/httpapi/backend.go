// Package httpapi wires the gin routers for the backend and worker HTTP
// surfaces.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/replenishment-service/internal/inventory"
	"github.com/example/replenishment-service/internal/store"
)

type stockUpdateRequest struct {
	StockQuantity *int `json:"stock_quantity"`
}

// NewBackendRouter builds the producer-side REST surface: product reads,
// stock mutation and sale simulation. Stock mutations that cross below the
// threshold enqueue an inventory event asynchronously; the response never
// waits for supplier confirmation.
func NewBackendRouter(svc *inventory.Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "SmartRetail Backend",
			"status":    "running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "SmartRetail Backend",
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"configuration": gin.H{
				"stock_threshold": svc.Threshold(),
			},
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/products", func(c *gin.Context) {
		products, err := svc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "product listing failed"})
			return
		}
		c.JSON(http.StatusOK, products)
	})

	router.GET("/products/:id", func(c *gin.Context) {
		product, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondProductError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	})

	router.PUT("/products/:id/stock", func(c *gin.Context) {
		var update stockUpdateRequest
		if err := c.ShouldBindJSON(&update); err != nil || update.StockQuantity == nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "stock_quantity is required"})
			return
		}
		if *update.StockQuantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "stock_quantity cannot be negative"})
			return
		}

		product, _, err := svc.UpdateStock(c.Request.Context(), c.Param("id"), *update.StockQuantity)
		if err != nil {
			respondProductError(c, err)
			return
		}
		c.JSON(http.StatusOK, product)
	})

	router.POST("/products/:id/simulate-sale", func(c *gin.Context) {
		quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
		if err != nil || quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "quantity must be a positive integer"})
			return
		}

		result, err := svc.SimulateSale(c.Request.Context(), c.Param("id"), quantity)
		if err != nil {
			respondProductError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":         "Sale completed",
			"product_id":      result.ProductID,
			"quantity_sold":   result.QuantitySold,
			"remaining_stock": result.RemainingStock,
			"below_threshold": result.BelowThreshold,
			"correlation_id":  result.CorrelationID,
		})
	})

	return router
}

func respondProductError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "Product not found"})
	case errors.Is(err, store.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Insufficient stock"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
