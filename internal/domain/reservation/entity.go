// internal/domain/reservation/entity.go
package reservation

import (
	"time"
)

// Status represents the lifecycle of one reserved tuple
type Status string

const (
	StatusActive   Status = "active"   // Shelf stock claimed, order not yet fulfilled
	StatusReleased Status = "released" // Claim undone (cancel/delete)
	StatusConsumed Status = "consumed" // Stock left inventory (delivered)
	StatusRestored Status = "restored" // Consumed stock put back (refund)
)

// OrderReservation makes one allocation tuple durable so it can be released,
// consumed or restored later by order ID. ExpiresAt exists for the external
// reservation sweeper; the core itself never times reservations out.
type OrderReservation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	BatchID    uint      `gorm:"not null;index" json:"batch_id"`
	LocationID uint      `gorm:"not null" json:"location_id"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Token      string    `gorm:"not null;size:64;uniqueIndex" json:"token"`
	Status     Status    `gorm:"not null;default:'active';index" json:"status"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides
func (OrderReservation) TableName() string { return "order_reservations" }
