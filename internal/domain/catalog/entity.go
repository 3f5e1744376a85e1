// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusActive   BatchStatus = "active"
	BatchStatusExpired  BatchStatus = "expired"
	BatchStatusDisposed BatchStatus = "disposed"
)

// Batch represents a production batch of a product. Immutable once created
// except for status and the promotion fields.
type Batch struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ProductID        uint           `gorm:"not null;index" json:"product_id"`
	BatchNumber      string         `gorm:"uniqueIndex;not null;size:50" json:"batch_number"`
	CostPrice        int64          `gorm:"not null" json:"cost_price"` // In cents
	UnitPrice        int64          `gorm:"not null" json:"unit_price"` // In cents, before discount
	DiscountPercent  int64          `gorm:"default:0" json:"discount_percent"`
	QuantityProduced int            `gorm:"not null" json:"quantity_produced"`
	ManufactureDate  time.Time      `gorm:"type:date;not null" json:"manufacture_date"`
	ExpiryDate       time.Time      `gorm:"type:date;not null;index" json:"expiry_date"`
	Status           BatchStatus    `gorm:"not null;default:'active';index" json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Batch) TableName() string { return "batches" }

// IsExpired checks whether the batch expiry date has passed
func (b *Batch) IsExpired(now time.Time) bool {
	return b.ExpiryDate.Before(now)
}

// IsSellable checks whether the batch may appear in allocations
func (b *Batch) IsSellable(now time.Time) bool {
	return b.Status == BatchStatusActive && !b.IsExpired(now)
}

// CurrentUnitPrice returns the unit price with the active discount applied
func (b *Batch) CurrentUnitPrice() int64 {
	if b.DiscountPercent <= 0 {
		return b.UnitPrice
	}
	return b.UnitPrice * (100 - b.DiscountPercent) / 100
}
