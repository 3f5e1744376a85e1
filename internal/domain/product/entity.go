// internal/domain/product/entity.go
package product

import (
	"time"

	"gorm.io/gorm"
)

// Product represents the product entity. The reference unit price is copied
// onto order lines at transaction time; it is never looked up retroactively.
type Product struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SKU        string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name       string         `gorm:"not null;size:255" json:"name"`
	Price      int64          `gorm:"not null" json:"price"` // Reference unit price in cents
	CategoryID uint           `gorm:"not null;index" json:"category_id"`
	Unit       string         `gorm:"size:20" json:"unit"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category"`
}

// Category represents product categories. Fresh categories require the caller
// to pick batches explicitly instead of relying on automatic allocation.
type Category struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	IsFresh   bool           `gorm:"default:false" json:"is_fresh"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// TableName overrides
func (Product) TableName() string  { return "products" }
func (Category) TableName() string { return "categories" }

// RequiresManualBatchSelection reports whether order lines for this product
// must carry explicit batch choices instead of automatic allocation.
func (p *Product) RequiresManualBatchSelection() bool {
	return p.Category.IsFresh
}
