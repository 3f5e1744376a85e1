// internal/domain/payment/sync.go
package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/order"
	"gorm.io/gorm"
)

// ErrPaymentNotFound is returned when a payment record does not exist
var ErrPaymentNotFound = errors.New("payment not found")

// SyncService keeps an order's payment status consistent with its payment
// records. It is a pure read-then-write reconciliation: it never touches the
// stock ledger. Stock effects only happen through the fulfillment transitions
// that fire once the status flips to paid.
type SyncService struct {
	db     *gorm.DB
	config *config.Config

	// OnPaymentConfirmed is invoked after Sync flips an order to paid.
	// Optional; wired to the order service at startup.
	OnPaymentConfirmed func(orderID uint) error
}

// NewSyncService creates a new payment sync service
func NewSyncService(db *gorm.DB, cfg *config.Config) *SyncService {
	return &SyncService{
		db:     db,
		config: cfg,
	}
}

// RecordPaymentRequest represents incoming payment data
type RecordPaymentRequest struct {
	OrderID   uint   `json:"order_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Method    string `json:"method" binding:"required"`
	Reference string `json:"reference,omitempty"`
	Status    Status `json:"status,omitempty"`
}

// RecordPayment stores a payment record and reconciles the order's payment
// status with it.
func (s *SyncService) RecordPayment(req *RecordPaymentRequest) (*Payment, error) {
	var ord order.Order
	if err := s.db.First(&ord, req.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	status := req.Status
	if status == "" {
		status = StatusConfirmed
	}

	payment := &Payment{
		OrderID:   req.OrderID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		Status:    status,
	}
	if status == StatusConfirmed {
		now := time.Now().UTC()
		payment.ProcessedAt = &now
	}

	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := s.Sync(req.OrderID); err != nil {
		return nil, err
	}
	return payment, nil
}

// RecordRefund stores the refund audit record for an order
func (s *SyncService) RecordRefund(orderID uint, amount int64, reason string) (*Payment, error) {
	now := time.Now().UTC()
	payment := &Payment{
		OrderID:     orderID,
		Amount:      -amount,
		Method:      "refund",
		Status:      StatusRefunded,
		Notes:       reason,
		ProcessedAt: &now,
	}
	if err := s.db.Create(payment).Error; err != nil {
		return nil, fmt.Errorf("failed to create refund record: %w", err)
	}
	return payment, nil
}

// Sync recomputes an order's payment status from its payment records:
// pending while nothing is confirmed, paid once the confirmed amount covers
// the order total, failed when the latest attempt failed with nothing
// confirmed. A refunded order stays refunded.
func (s *SyncService) Sync(orderID uint) error {
	var ord order.Order
	if err := s.db.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.ErrOrderNotFound
		}
		return fmt.Errorf("failed to retrieve order: %w", err)
	}
	if ord.PaymentStatus == order.PaymentStatusRefunded {
		return nil
	}

	var payments []Payment
	if err := s.db.Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&payments).Error; err != nil {
		return fmt.Errorf("failed to retrieve payments: %w", err)
	}

	newStatus := derivePaymentStatus(&ord, payments)
	if newStatus == ord.PaymentStatus {
		return nil
	}

	if err := s.db.Model(&ord).Update("payment_status", newStatus).Error; err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}

	if newStatus == order.PaymentStatusPaid && s.OnPaymentConfirmed != nil {
		if err := s.OnPaymentConfirmed(orderID); err != nil {
			return fmt.Errorf("payment confirmation hook failed: %w", err)
		}
	}
	return nil
}

// GetPayments returns all payment records for an order
func (s *SyncService) GetPayments(orderID uint) ([]Payment, error) {
	var payments []Payment
	if err := s.db.Where("order_id = ?", orderID).Order("created_at ASC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve payments: %w", err)
	}
	return payments, nil
}

func derivePaymentStatus(ord *order.Order, payments []Payment) order.PaymentStatus {
	var confirmed int64
	hasFailure := false
	for _, p := range payments {
		switch p.Status {
		case StatusConfirmed:
			confirmed += p.Amount
		case StatusFailed:
			hasFailure = true
		}
	}

	switch {
	case confirmed >= ord.TotalAmount && ord.TotalAmount > 0:
		return order.PaymentStatusPaid
	case confirmed > 0:
		return order.PaymentStatusPending
	case hasFailure:
		return order.PaymentStatusFailed
	default:
		return order.PaymentStatusPending
	}
}
