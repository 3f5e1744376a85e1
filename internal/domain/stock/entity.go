// internal/domain/stock/entity.go
package stock

import (
	"time"
)

// MovementType represents the type of stock movement
type MovementType string

const (
	MovementReceipt    MovementType = "receipt"    // Warehouse intake
	MovementCorrection MovementType = "correction" // Manual adjustment
	MovementShelve     MovementType = "shelve"     // Warehouse to shelf
	MovementReserve    MovementType = "reserve"    // Claimed by an order
	MovementRelease    MovementType = "release"    // Reservation undone
	MovementConsume    MovementType = "consume"    // Left inventory permanently
	MovementRestore    MovementType = "restore"    // Refund put stock back
)

// StockRecord tracks quantities for one batch at one location. It is the only
// contended row in the system; every mutation is a single conditional UPDATE
// guarded by the invariants below.
//
// Invariants: 0 <= QuantityReserved <= QuantityOnShelf, QuantityOnHand >= 0.
type StockRecord struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BatchID          uint      `gorm:"not null;uniqueIndex:idx_stock_batch_location" json:"batch_id"`
	LocationID       uint      `gorm:"not null;uniqueIndex:idx_stock_batch_location;index" json:"location_id"`
	QuantityOnHand   int       `gorm:"not null;default:0" json:"quantity_on_hand"`
	QuantityOnShelf  int       `gorm:"not null;default:0" json:"quantity_on_shelf"`
	QuantityReserved int       `gorm:"not null;default:0" json:"quantity_reserved"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StockMovement is the audit record written alongside every ledger mutation
type StockMovement struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	StockRecordID uint         `gorm:"not null;index" json:"stock_record_id"`
	BatchID       uint         `gorm:"not null;index" json:"batch_id"`
	LocationID    uint         `gorm:"not null;index" json:"location_id"`
	MovementType  MovementType `gorm:"not null" json:"movement_type"`
	Quantity      int          `gorm:"not null" json:"quantity"`
	Reference     string       `gorm:"size:64;index" json:"reference"` // Operation token
	Notes         string       `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time    `json:"created_at"`
}

// TableName overrides
func (StockRecord) TableName() string   { return "stock_records" }
func (StockMovement) TableName() string { return "stock_movements" }

// QuantityAvailable returns the quantity a new order may still claim
func (r *StockRecord) QuantityAvailable() int {
	return r.QuantityOnShelf - r.QuantityReserved
}

// Occupancy returns the units this record contributes to its location
func (r *StockRecord) Occupancy() int {
	return r.QuantityOnHand + r.QuantityOnShelf
}
