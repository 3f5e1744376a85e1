// internal/domain/location/entity.go
package location

import (
	"time"

	"gorm.io/gorm"
)

// Location represents a named storage slot with a maximum unit capacity
type Location struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Code        string         `gorm:"uniqueIndex;not null;size:20" json:"code"`
	Name        string         `gorm:"not null;size:100" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	MaxCapacity int            `gorm:"not null" json:"max_capacity"` // Unit count
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Location) TableName() string { return "locations" }
