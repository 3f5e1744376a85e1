// internal/domain/payment/entity.go
package payment

import (
	"time"

	"gorm.io/gorm"
)

// Status represents the status of a single payment record
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is an independent record of money received against an order. Many
// payments may reference one order, and deleting an order never deletes its
// payments — refunds leave an audit trail instead.
type Payment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	OrderID     uint           `gorm:"not null;index" json:"order_id"`
	Amount      int64          `gorm:"not null" json:"amount"` // In cents
	Method      string         `gorm:"not null;size:50" json:"method"`
	Reference   string         `gorm:"size:255" json:"reference"` // External provider reference
	Status      Status         `gorm:"not null;default:'pending'" json:"status"`
	Notes       string         `gorm:"type:text" json:"notes"`
	ProcessedAt *time.Time     `json:"processed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Payment) TableName() string { return "payments" }
