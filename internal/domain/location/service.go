// internal/domain/location/service.go
package location

import (
	"errors"
	"fmt"

	"github.com/your-org/warehouse-backend/internal/config"
	"gorm.io/gorm"
)

// Location errors
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrLocationOccupied = errors.New("location still holds stock")
)

// Service handles location capacity bookkeeping
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new location service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// CreateLocationRequest represents location creation data
type CreateLocationRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MaxCapacity int    `json:"max_capacity" binding:"required,gt=0"`
}

// CreateLocation creates a new storage location
func (s *Service) CreateLocation(req *CreateLocationRequest) (*Location, error) {
	var existing Location
	if err := s.db.Where("code = ?", req.Code).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("location with code '%s' already exists", req.Code)
	}

	loc := &Location{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
		IsActive:    true,
	}

	if err := s.db.Create(loc).Error; err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	return loc, nil
}

// GetLocation retrieves a single location by ID
func (s *Service) GetLocation(id uint) (*Location, error) {
	var loc Location
	if err := s.db.First(&loc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to retrieve location: %w", err)
	}
	return &loc, nil
}

// GetLocations retrieves all active locations
func (s *Service) GetLocations() ([]Location, error) {
	var locations []Location
	if err := s.db.Where("is_active = ?", true).Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve locations: %w", err)
	}
	return locations, nil
}

// CurrentOccupancy returns the sum of on-hand and on-shelf quantities across
// all batches stored at the location. Reserved stock is still on the shelf and
// is not counted twice.
func (s *Service) CurrentOccupancy(locationID uint) (int, error) {
	var occupancy int64
	err := s.db.Table("stock_records").
		Where("location_id = ?", locationID).
		Select("COALESCE(SUM(quantity_on_hand + quantity_on_shelf), 0)").
		Scan(&occupancy).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute occupancy: %w", err)
	}
	return int(occupancy), nil
}

// CanAccept reports whether the location can take qty more units
func (s *Service) CanAccept(locationID uint, qty int) (bool, error) {
	loc, err := s.GetLocation(locationID)
	if err != nil {
		return false, err
	}
	if !loc.IsActive {
		return false, nil
	}

	occupancy, err := s.CurrentOccupancy(locationID)
	if err != nil {
		return false, err
	}
	return occupancy+qty <= loc.MaxCapacity, nil
}

// DeactivateLocation deactivates a location. Rejected while any stock remains.
func (s *Service) DeactivateLocation(id uint) error {
	loc, err := s.GetLocation(id)
	if err != nil {
		return err
	}

	occupancy, err := s.CurrentOccupancy(id)
	if err != nil {
		return err
	}
	if occupancy > 0 {
		return fmt.Errorf("%w: %d units at location '%s'", ErrLocationOccupied, occupancy, loc.Code)
	}

	if err := s.db.Model(loc).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate location: %w", err)
	}
	return nil
}

// DeleteLocation soft-deletes a location. Rejected while any stock remains.
func (s *Service) DeleteLocation(id uint) error {
	loc, err := s.GetLocation(id)
	if err != nil {
		return err
	}

	occupancy, err := s.CurrentOccupancy(id)
	if err != nil {
		return err
	}
	if occupancy > 0 {
		return fmt.Errorf("%w: %d units at location '%s'", ErrLocationOccupied, occupancy, loc.Code)
	}

	if err := s.db.Delete(loc).Error; err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}
