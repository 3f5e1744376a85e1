// internal/domain/customer/entity.go
package customer

import (
	"time"

	"gorm.io/gorm"
)

// Tier represents the customer loyalty tier
type Tier string

const (
	TierRegular Tier = "regular"
	TierSilver  Tier = "silver"
	TierGold    Tier = "gold"
)

// Customer represents a buyer. The tier only matters at order creation time:
// the resulting discount percentage is frozen onto the order.
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	Phone     string         `gorm:"size:20;index" json:"phone"`
	Email     string         `gorm:"size:255" json:"email"`
	Tier      Tier           `gorm:"not null;default:'regular'" json:"tier"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Customer) TableName() string { return "customers" }

// DiscountPercent returns the order discount percentage for the customer's
// current tier.
func (c *Customer) DiscountPercent() int64 {
	switch c.Tier {
	case TierGold:
		return 10
	case TierSilver:
		return 5
	default:
		return 0
	}
}
