// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
	"gorm.io/gorm"
)

// InventoryHandler handles stock ledger endpoints
type InventoryHandler struct {
	stockService *stock.Service
	config       *config.Config
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *InventoryHandler {
	return &InventoryHandler{
		stockService: stock.NewService(db, cfg),
		config:       cfg,
	}
}

// AdjustRequest represents a warehouse-side stock mutation
type AdjustRequest struct {
	BatchID    uint   `json:"batch_id" binding:"required"`
	LocationID uint   `json:"location_id" binding:"required"`
	Kind       string `json:"kind" binding:"required,oneof=receipt correction shelve"`
	Quantity   int    `json:"quantity" binding:"required"`
	Notes      string `json:"notes,omitempty"`
}

// Adjust handles POST /inventory/adjust. Receipts and corrections move the
// on-hand quantity; shelve moves stock from on-hand to on-shelf.
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	var record *stock.StockRecord
	var err error
	switch req.Kind {
	case "shelve":
		record, err = h.stockService.ShelveStock(req.BatchID, req.LocationID, req.Quantity)
	case "receipt":
		record, err = h.stockService.AdjustOnHand(req.BatchID, req.LocationID, req.Quantity, stock.MovementReceipt, req.Notes)
	default:
		record, err = h.stockService.AdjustOnHand(req.BatchID, req.LocationID, req.Quantity, stock.MovementCorrection, req.Notes)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock adjusted successfully",
		"data":    record,
	})
}

// GetStock handles GET /inventory/:batch_id/:location_id
func (h *InventoryHandler) GetStock(c *gin.Context) {
	batchID, ok := parseIDParam(c, "batch_id")
	if !ok {
		return
	}
	locationID, ok := parseIDParam(c, "location_id")
	if !ok {
		return
	}

	record, err := h.stockService.Record(batchID, locationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock record retrieved successfully",
		"data": gin.H{
			"record":    record,
			"available": record.QuantityAvailable(),
		},
	})
}

// GetMovements handles GET /inventory/:batch_id/:location_id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	batchID, ok := parseIDParam(c, "batch_id")
	if !ok {
		return
	}
	locationID, ok := parseIDParam(c, "location_id")
	if !ok {
		return
	}

	movements, err := h.stockService.Movements(batchID, locationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Movements retrieved successfully",
		"data":    movements,
	})
}
