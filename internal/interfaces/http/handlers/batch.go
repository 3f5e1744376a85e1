// internal/interfaces/http/handlers/batch.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// BatchHandler handles batch catalog endpoints
type BatchHandler struct {
	catalogService *catalog.Service
	config         *config.Config
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *BatchHandler {
	return &BatchHandler{
		catalogService: catalog.NewService(db, redisClient, cfg),
		config:         cfg,
	}
}

// CreateBatch handles POST /batches
func (h *BatchHandler) CreateBatch(c *gin.Context) {
	var req catalog.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	batch, err := h.catalogService.CreateBatch(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Batch created successfully",
		"data":    batch,
	})
}

// GetBatch handles GET /batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.catalogService.GetBatch(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batch retrieved successfully",
		"data":    batch,
	})
}

// ListBatchesForProduct handles GET /products/:id/batches. Returns only
// sellable batches, ordered by expiry so the UI shows them in picking order.
// With ?near_expiry=true only batches inside the near-expiry window come back.
func (h *BatchHandler) ListBatchesForProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var batches []catalog.Batch
	var err error
	if c.Query("near_expiry") == "true" {
		batches, err = h.catalogService.ListNearExpiryBatchesForProduct(productID)
	} else {
		batches, err = h.catalogService.ListActiveBatchesForProduct(productID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batches retrieved successfully",
		"data":    batches,
	})
}

// GetCurrentPrice handles GET /batches/:id/price
func (h *BatchHandler) GetCurrentPrice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	price, err := h.catalogService.CurrentUnitPrice(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Price retrieved successfully",
		"data": gin.H{
			"batch_id":   id,
			"unit_price": price,
		},
	})
}

// SetPromotion handles PATCH /batches/:id/promotion
func (h *BatchHandler) SetPromotion(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req catalog.SetPromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	batch, err := h.catalogService.SetPromotion(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Promotion updated successfully",
		"data":    batch,
	})
}

// MarkExpired handles PATCH /batches/:id/expire
func (h *BatchHandler) MarkExpired(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.catalogService.MarkExpired(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batch marked expired",
		"data":    batch,
	})
}

// MarkDisposed handles PATCH /batches/:id/dispose
func (h *BatchHandler) MarkDisposed(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.catalogService.MarkDisposed(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Batch marked disposed",
		"data":    batch,
	})
}
