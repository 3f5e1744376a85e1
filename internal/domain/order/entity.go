// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the fulfillment status
type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// PaymentStatus represents the aggregated payment status of an order
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// DeliveryType represents how the order reaches the customer
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

// Order represents the order entity. DiscountPercent is resolved from the
// customer tier once at creation and frozen; it never tracks later tier
// changes.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	CustomerID    uint          `gorm:"not null;index" json:"customer_id"`
	DeliveryType  DeliveryType  `gorm:"not null;default:'pickup'" json:"delivery_type"`
	Status        OrderStatus   `gorm:"not null;default:'draft';index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"not null;default:'pending';index" json:"payment_status"`

	// Financial information, all in cents
	SubtotalAmount  int64 `gorm:"not null" json:"subtotal_amount"`
	ShippingFee     int64 `gorm:"default:0" json:"shipping_fee"`
	DiscountPercent int64 `gorm:"default:0" json:"discount_percent"`
	DiscountAmount  int64 `gorm:"default:0" json:"discount_amount"`
	TotalAmount     int64 `gorm:"not null" json:"total_amount"`

	ShippingAddress string `gorm:"type:text" json:"shipping_address"`
	Notes           string `gorm:"type:text" json:"notes"`
	RefundReason    string `gorm:"type:text" json:"refund_reason"`
	CreatedBy       uint   `gorm:"index" json:"created_by"`

	// Timestamps
	ProcessedAt *time.Time     `json:"processed_at"`
	ShippedAt   *time.Time     `json:"shipped_at"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Lines         []OrderLine          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderLine represents one allocated batch within an order. UnitPrice is the
// batch price snapshotted at allocation time and is never recalculated.
type OrderLine struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	BatchID    uint      `gorm:"not null;index" json:"batch_id"`
	LocationID uint      `gorm:"not null" json:"location_id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	SKU        string    `gorm:"not null;size:100" json:"sku"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`  // In cents
	TotalPrice int64     `gorm:"not null" json:"total_price"` // Quantity * UnitPrice
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedBy uint        `gorm:"index" json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderLine) TableName() string          { return "order_lines" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// Business methods for Order

// GenerateOrderNumber generates a unique order number
func (o *Order) GenerateOrderNumber() string {
	// Format: SO-YYYYMMDD-XXXXX
	return fmt.Sprintf("SO-%s-%05d", time.Now().Format("20060102"), o.ID)
}

// IsPaid checks whether payments cover the order total
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// IsTerminal checks whether the order reached a terminal state
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCancelled || o.Status == OrderStatusRefunded
}

// CanBeCancelled checks if the order can still be cancelled. Cancellation is
// open from any state before delivery.
func (o *Order) CanBeCancelled() bool {
	switch o.Status {
	case OrderStatusDraft, OrderStatusPending, OrderStatusProcessing, OrderStatusShipping:
		return true
	}
	return false
}

// CanBeRefunded checks if the order can be refunded
func (o *Order) CanBeRefunded() bool {
	return o.Status == OrderStatusDelivered && o.IsPaid()
}

// CanBeDeleted checks if the order may be hard-deleted. Anything past
// draft/pending or with money against it must go through cancel/refund so the
// audit trail survives.
func (o *Order) CanBeDeleted() bool {
	return (o.Status == OrderStatusDraft || o.Status == OrderStatusPending) &&
		o.PaymentStatus == PaymentStatusPending
}

// AddStatusHistory adds a new status change to history
func (o *Order) AddStatusHistory(status OrderStatus, comment string, createdBy uint) {
	history := OrderStatusHistory{
		OrderID:   o.ID,
		Status:    status,
		Comment:   comment,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	o.StatusHistory = append(o.StatusHistory, history)
}
