// internal/interfaces/http/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/warehouse-backend/internal/domain/allocation"
	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"github.com/your-org/warehouse-backend/internal/domain/location"
	"github.com/your-org/warehouse-backend/internal/domain/order"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
)

// respondError maps domain errors onto HTTP statuses. Not-found lookups are
// 404, capacity and stock conflicts 409, state machine guard violations 422,
// bad input 400. Anything unrecognized is a 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrBatchNotFound),
		errors.Is(err, location.ErrLocationNotFound),
		errors.Is(err, stock.ErrStockRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, order.ErrValidation),
		errors.Is(err, allocation.ErrInvalidSelection),
		errors.Is(err, catalog.ErrInvalidDiscount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, allocation.ErrInsufficientStock),
		errors.Is(err, stock.ErrInsufficientAvailable),
		errors.Is(err, stock.ErrInsufficientOnHand),
		errors.Is(err, stock.ErrNegativeStock),
		errors.Is(err, stock.ErrCapacityExceeded),
		errors.Is(err, stock.ErrLocationInactive),
		errors.Is(err, location.ErrLocationOccupied):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, order.ErrPaymentNotComplete),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrRefundNotAllowed),
		errors.Is(err, order.ErrDeleteNotAllowed),
		errors.Is(err, catalog.ErrBatchNotActive):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
