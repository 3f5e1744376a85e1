// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/allocation"
	"github.com/your-org/warehouse-backend/internal/domain/customer"
	"github.com/your-org/warehouse-backend/internal/domain/product"
	"github.com/your-org/warehouse-backend/internal/domain/reservation"
	"gorm.io/gorm"
)

// State machine errors. Guard violations are pure rejections: the order row
// is left untouched and no stock moves.
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrValidation         = errors.New("invalid order request")
	ErrPaymentNotComplete = errors.New("order payment is not complete")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrRefundNotAllowed   = errors.New("order cannot be refunded")
	ErrDeleteNotAllowed   = errors.New("order cannot be deleted")
)

// Service drives an order through its fulfillment states, invoking the
// allocator and the reservation service at the right transitions.
type Service struct {
	db                 *gorm.DB
	config             *config.Config
	allocator          *allocation.Allocator
	reservationService *reservation.Service
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, allocator *allocation.Allocator, reservationService *reservation.Service) *Service {
	return &Service{
		db:                 db,
		config:             cfg,
		allocator:          allocator,
		reservationService: reservationService,
	}
}

// OrderItemRequest represents one requested product within an order.
// BatchSelections is only accepted for fresh-category products, where the
// operator picks batches by hand instead of the automatic expiry-first search.
type OrderItemRequest struct {
	ProductID       uint                        `json:"product_id" binding:"required"`
	Quantity        int                         `json:"quantity" binding:"required,gt=0"`
	BatchSelections []allocation.BatchSelection `json:"batch_selections,omitempty"`
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	CustomerID      uint               `json:"customer_id" binding:"required"`
	DeliveryType    DeliveryType       `json:"delivery_type" binding:"required"`
	ShippingAddress string             `json:"shipping_address,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	Items           []OrderItemRequest `json:"items" binding:"required,dive"`
}

// CreateOrder allocates stock for every item, reserves it, and persists the
// order with price snapshots taken at allocation time. The discount
// percentage is resolved from the customer tier here and frozen.
func (s *Service) CreateOrder(req *CreateOrderRequest, createdBy uint) (*Order, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	var cust customer.Customer
	if err := s.db.First(&cust, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %d not found", ErrValidation, req.CustomerID)
		}
		return nil, fmt.Errorf("failed to retrieve customer: %w", err)
	}

	// Plan allocations for every item before anything is written. The plan is
	// a snapshot; availability is re-validated atomically when reserved.
	type plannedLine struct {
		product     *product.Product
		allocations []allocation.Allocation
	}
	var planned []plannedLine
	for _, item := range req.Items {
		prod, err := s.lookupProduct(item.ProductID)
		if err != nil {
			return nil, err
		}

		var allocations []allocation.Allocation
		switch {
		case len(item.BatchSelections) > 0:
			if !prod.RequiresManualBatchSelection() {
				return nil, fmt.Errorf("%w: product '%s' does not allow manual batch selection", ErrValidation, prod.Name)
			}
			if total := selectionTotal(item.BatchSelections); total != item.Quantity {
				return nil, fmt.Errorf("%w: batch selections cover %d of %d units for '%s'",
					ErrValidation, total, item.Quantity, prod.Name)
			}
			allocations, err = s.allocator.AllocateExplicit(prod.ID, item.BatchSelections)
		default:
			allocations, err = s.allocator.Allocate(prod.ID, item.Quantity)
		}
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedLine{product: prod, allocations: allocations})
	}

	// Build the order and its lines from the plan
	order := &Order{
		CustomerID:      req.CustomerID,
		DeliveryType:    req.DeliveryType,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Status:          OrderStatusDraft,
		PaymentStatus:   PaymentStatusPending,
		DiscountPercent: cust.DiscountPercent(),
		CreatedBy:       createdBy,
	}
	if req.DeliveryType == DeliveryTypeDelivery && s.config != nil {
		order.ShippingFee = s.config.Inventory.DefaultShipping
	}

	var subtotal int64
	var lines []OrderLine
	var allAllocations []allocation.Allocation
	for _, p := range planned {
		for _, alloc := range p.allocations {
			lines = append(lines, OrderLine{
				ProductID:  p.product.ID,
				BatchID:    alloc.BatchID,
				LocationID: alloc.LocationID,
				Name:       p.product.Name,
				SKU:        p.product.SKU,
				Quantity:   alloc.Quantity,
				UnitPrice:  alloc.UnitPrice,
				TotalPrice: alloc.UnitPrice * int64(alloc.Quantity),
			})
			subtotal += alloc.UnitPrice * int64(alloc.Quantity)
			allAllocations = append(allAllocations, alloc)
		}
	}
	order.SubtotalAmount = subtotal
	order.DiscountAmount = subtotal * order.DiscountPercent / 100
	order.TotalAmount = subtotal + order.ShippingFee - order.DiscountAmount

	// Persist order, lines and initial history together
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order.OrderNumber = order.GenerateOrderNumber()
		if err := tx.Model(order).Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to update order number: %w", err)
		}

		for i := range lines {
			lines[i].OrderID = order.ID
			if err := tx.Create(&lines[i]).Error; err != nil {
				return fmt.Errorf("failed to create order line: %w", err)
			}
		}

		history := OrderStatusHistory{
			OrderID:   order.ID,
			Status:    OrderStatusDraft,
			Comment:   "Order created",
			CreatedBy: createdBy,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reserve the planned stock. A failure here rolls the whole order back:
	// the reservation service has already compensated its own partial work.
	if err := s.reservationService.ReserveForOrder(order.ID, allAllocations); err != nil {
		s.discardOrder(order.ID)
		return nil, err
	}

	return s.GetOrder(order.ID)
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(id uint) (*Order, error) {
	var order Order
	result := s.db.
		Preload("Lines").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&order, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}
	return &order, nil
}

// OrderListRequest represents order list query parameters
type OrderListRequest struct {
	Page       int         `form:"page,default=1"`
	Limit      int         `form:"limit,default=20"`
	Status     OrderStatus `form:"status"`
	CustomerID uint        `form:"customer_id"`
}

// GetOrders retrieves orders with filtering and pagination
func (s *Service) GetOrders(req *OrderListRequest) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Preload("Lines")
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.CustomerID > 0 {
		query = query.Where("customer_id = ?", req.CustomerID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}

// UpdateOrderStatus moves an order along the fulfillment state machine.
// Delivery requires completed payment and converts the order's reservations
// into consumption; cancellation releases them.
func (s *Service) UpdateOrderStatus(orderID uint, newStatus OrderStatus, comment string, updatedBy uint) (*Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}

	if newStatus == OrderStatusRefunded {
		return nil, fmt.Errorf("%w: refunds go through the refund operation", ErrInvalidTransition)
	}
	if !isValidStatusTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, newStatus)
	}

	if newStatus == OrderStatusCancelled {
		return s.cancel(order, comment, updatedBy)
	}

	if newStatus == OrderStatusDelivered {
		if !order.IsPaid() {
			return nil, fmt.Errorf("%w: payment status is %s", ErrPaymentNotComplete, order.PaymentStatus)
		}
		if err := s.reservationService.ConsumeForOrder(order.ID); err != nil {
			return nil, err
		}
	}

	updates := map[string]interface{}{"status": newStatus}
	now := time.Now().UTC()
	switch newStatus {
	case OrderStatusProcessing:
		updates["processed_at"] = now
	case OrderStatusShipping:
		updates["shipped_at"] = now
	case OrderStatusDelivered:
		updates["delivered_at"] = now
	}

	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if err := s.appendHistory(order.ID, newStatus, comment, updatedBy); err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// CancelOrder cancels an order and releases its reservations. Allowed from
// any state before delivery.
func (s *Service) CancelOrder(orderID uint, reason string, cancelledBy uint) (*Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeCancelled() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, OrderStatusCancelled)
	}
	return s.cancel(order, reason, cancelledBy)
}

// RefundOrder refunds a delivered, paid order: consumed stock goes back on
// the shelf and the refund reason is recorded. Payments themselves stay as an
// audit trail.
func (s *Service) RefundOrder(orderID uint, reason string, refundedBy uint) (*Order, error) {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanBeRefunded() {
		return nil, fmt.Errorf("%w: status %s, payment %s", ErrRefundNotAllowed, order.Status, order.PaymentStatus)
	}

	if err := s.reservationService.RestoreForOrder(order.ID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":         OrderStatusRefunded,
		"payment_status": PaymentStatusRefunded,
		"refund_reason":  reason,
	}
	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	comment := "Order refunded"
	if reason != "" {
		comment = fmt.Sprintf("Order refunded: %s", reason)
	}
	if err := s.appendHistory(order.ID, OrderStatusRefunded, comment, refundedBy); err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

// DeleteOrder hard-deletes an order. Only allowed while the order is still
// draft or pending and unpaid; anything else keeps its audit trail and must
// be cancelled or refunded instead.
func (s *Service) DeleteOrder(orderID uint) error {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return err
	}
	if !order.CanBeDeleted() {
		return fmt.Errorf("%w: status %s, payment %s", ErrDeleteNotAllowed, order.Status, order.PaymentStatus)
	}

	if err := s.reservationService.ReleaseForOrder(order.ID); err != nil {
		return err
	}

	return s.hardDelete(order.ID)
}

// OnPaymentConfirmed is the narrow hook the payment reconciliation calls once
// an order's payment status flips to paid. A draft order becomes pending; the
// delivered-transition guard reads the synced payment status on its own.
func (s *Service) OnPaymentConfirmed(orderID uint) error {
	order, err := s.GetOrder(orderID)
	if err != nil {
		return err
	}
	if order.Status != OrderStatusDraft {
		return nil
	}

	if err := s.db.Model(order).Update("status", OrderStatusPending).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return s.appendHistory(order.ID, OrderStatusPending, "Payment confirmed", 0)
}

// Private helpers

func (s *Service) validateRequest(req *CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order has no items", ErrValidation)
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
	}
	switch req.DeliveryType {
	case DeliveryTypeDelivery:
		if req.ShippingAddress == "" {
			return fmt.Errorf("%w: shipping address is required for delivery orders", ErrValidation)
		}
	case DeliveryTypePickup:
		// No address needed
	default:
		return fmt.Errorf("%w: unknown delivery type '%s'", ErrValidation, req.DeliveryType)
	}
	return nil
}

func (s *Service) lookupProduct(id uint) (*product.Product, error) {
	var prod product.Product
	if err := s.db.Preload("Category").First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d not found", ErrValidation, id)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	if !prod.IsActive {
		return nil, fmt.Errorf("%w: product '%s' is no longer available", ErrValidation, prod.Name)
	}
	return &prod, nil
}

func (s *Service) cancel(order *Order, reason string, cancelledBy uint) (*Order, error) {
	if err := s.reservationService.ReleaseForOrder(order.ID); err != nil {
		return nil, err
	}

	if err := s.db.Model(order).Update("status", OrderStatusCancelled).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	comment := "Order cancelled"
	if reason != "" {
		comment = fmt.Sprintf("Order cancelled: %s", reason)
	}
	if err := s.appendHistory(order.ID, OrderStatusCancelled, comment, cancelledBy); err != nil {
		return nil, err
	}

	return s.GetOrder(order.ID)
}

func (s *Service) appendHistory(orderID uint, status OrderStatus, comment string, createdBy uint) error {
	history := OrderStatusHistory{
		OrderID:   orderID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	return nil
}

// hardDelete removes the order and its dependents for good
func (s *Service) hardDelete(orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&OrderLine{}).Error; err != nil {
			return fmt.Errorf("failed to delete order lines: %w", err)
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&OrderStatusHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete status history: %w", err)
		}
		if err := tx.Unscoped().Delete(&Order{}, orderID).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

// discardOrder cleans up a freshly-created order whose reservation failed
func (s *Service) discardOrder(orderID uint) {
	_ = s.hardDelete(orderID)
}

func isValidStatusTransition(from, to OrderStatus) bool {
	validTransitions := map[OrderStatus][]OrderStatus{
		OrderStatusDraft: {
			OrderStatusPending,
			OrderStatusProcessing,
			OrderStatusDelivered,
			OrderStatusCancelled,
		},
		OrderStatusPending: {
			OrderStatusProcessing,
			OrderStatusDelivered,
			OrderStatusCancelled,
		},
		OrderStatusProcessing: {
			OrderStatusShipping,
			OrderStatusDelivered,
			OrderStatusCancelled,
		},
		OrderStatusShipping: {
			OrderStatusDelivered,
			OrderStatusCancelled,
		},
		OrderStatusDelivered: {
			OrderStatusRefunded,
		},
	}

	for _, status := range validTransitions[from] {
		if status == to {
			return true
		}
	}
	return false
}

func selectionTotal(selections []allocation.BatchSelection) int {
	total := 0
	for _, sel := range selections {
		total += sel.Quantity
	}
	return total
}
