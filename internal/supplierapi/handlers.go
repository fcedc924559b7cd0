package supplierapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/replenishment-service/internal/models"
)

// NewRouter wires the supplier API's HTTP surface.
func NewRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":     "Supplier API",
			"supplier_id": svc.SupplierID(),
			"status":      "operational",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "Supplier API",
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.POST("/order", func(c *gin.Context) {
		var order models.SupplierOrderRequest
		if err := c.ShouldBindJSON(&order); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid order payload"})
			return
		}
		if order.ProductID == "" || order.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "product_id and positive quantity are required"})
			return
		}
		if order.Priority == "" {
			order.Priority = models.PriorityNormal
		}
		if !order.Priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "unsupported priority"})
			return
		}

		result, err := svc.ProcessOrder(c.Request.Context(), order, c.GetHeader("X-Correlation-ID"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "order processing failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	router.GET("/orders/:id", func(c *gin.Context) {
		record, err := svc.Order(c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrOrderNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"detail": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "order lookup failed"})
			return
		}
		c.JSON(http.StatusOK, record)
	})

	router.GET("/orders", func(c *gin.Context) {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 {
			limit = 10
		}
		records, total := svc.Recent(limit)
		c.JSON(http.StatusOK, gin.H{"orders": records, "total_count": total})
	})

	router.GET("/catalog", func(c *gin.Context) {
		catalog, err := svc.Catalog(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "catalog lookup failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"supplier_id": svc.SupplierID(),
			"catalog":     catalog,
			"currency":    "CAD",
		})
	})

	return router
}
