// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/allocation"
	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"github.com/your-org/warehouse-backend/internal/domain/order"
	"github.com/your-org/warehouse-backend/internal/domain/payment"
	"github.com/your-org/warehouse-backend/internal/domain/reservation"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
	"gorm.io/gorm"
)

// PaymentHandler handles payment record endpoints
type PaymentHandler struct {
	paymentSync *payment.SyncService
	config      *config.Config
}

// NewPaymentHandler creates a new payment handler. The sync service is wired
// to the order service so a confirming payment advances the order out of
// draft.
func NewPaymentHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *PaymentHandler {
	stockService := stock.NewService(db, cfg)
	catalogService := catalog.NewService(db, redisClient, cfg)
	allocator := allocation.NewAllocator(catalogService, stockService)
	reservationService := reservation.NewService(db, stockService, cfg)
	orderService := order.NewService(db, cfg, allocator, reservationService)

	paymentSync := payment.NewSyncService(db, cfg)
	paymentSync.OnPaymentConfirmed = orderService.OnPaymentConfirmed

	return &PaymentHandler{
		paymentSync: paymentSync,
		config:      cfg,
	}
}

// RecordPayment handles POST /payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req payment.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	p, err := h.paymentSync.RecordPayment(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Payment recorded successfully",
		"data":    p,
	})
}

// SyncOrder handles POST /payments/:order_id/sync. Re-runs reconciliation for
// an order, for operators recovering from an out-of-band correction.
func (h *PaymentHandler) SyncOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	if err := h.paymentSync.Sync(orderID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment status synced successfully",
	})
}

// GetPayments handles GET /payments/:order_id
func (h *PaymentHandler) GetPayments(c *gin.Context) {
	orderID, ok := parseIDParam(c, "order_id")
	if !ok {
		return
	}

	payments, err := h.paymentSync.GetPayments(orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payments retrieved successfully",
		"data":    payments,
	})
}
