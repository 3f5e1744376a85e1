// internal/domain/reservation/service.go
package reservation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/allocation"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
	"gorm.io/gorm"
)

// Service makes allocation plans durable and reversible before payment is
// confirmed. All methods are all-or-nothing per call: a failure partway
// triggers compensating ledger calls before the error surfaces.
type Service struct {
	db           *gorm.DB
	stockService *stock.Service
	config       *config.Config
}

// NewService creates a new reservation service
func NewService(db *gorm.DB, stockService *stock.Service, cfg *config.Config) *Service {
	return &Service{
		db:           db,
		stockService: stockService,
		config:       cfg,
	}
}

// ReserveForOrder claims shelf stock for every tuple of an allocation plan.
// If any single reservation fails, the ones that already succeeded are
// released again and the whole call fails with ErrInsufficientStock — order
// creation never leaves a partial reservation behind.
func (s *Service) ReserveForOrder(orderID uint, allocations []allocation.Allocation) error {
	if len(allocations) == 0 {
		return fmt.Errorf("nothing to reserve")
	}

	ttl := 24 * time.Hour
	if s.config != nil && s.config.Inventory.ReservationTTL > 0 {
		ttl = s.config.Inventory.ReservationTTL
	}
	expiresAt := time.Now().Add(ttl)

	reservations := make([]OrderReservation, 0, len(allocations))
	for _, alloc := range allocations {
		token := uuid.New().String()
		if err := s.stockService.Reserve(alloc.BatchID, alloc.LocationID, alloc.Quantity, token); err != nil {
			s.compensate(reservations)
			return fmt.Errorf("%w: batch %d at location %d: %v",
				allocation.ErrInsufficientStock, alloc.BatchID, alloc.LocationID, err)
		}
		reservations = append(reservations, OrderReservation{
			OrderID:    orderID,
			BatchID:    alloc.BatchID,
			LocationID: alloc.LocationID,
			Quantity:   alloc.Quantity,
			Token:      token,
			Status:     StatusActive,
			ExpiresAt:  expiresAt,
		})
	}

	if err := s.db.Create(&reservations).Error; err != nil {
		s.compensate(reservations)
		return fmt.Errorf("failed to persist reservations: %w", err)
	}
	return nil
}

// ReleaseForOrder reverses all active reservations tied to an order, used on
// cancel and delete.
func (s *Service) ReleaseForOrder(orderID uint) error {
	reservations, err := s.reservationsInStatus(orderID, StatusActive)
	if err != nil {
		return err
	}

	for i := range reservations {
		r := &reservations[i]
		if err := s.stockService.Release(r.BatchID, r.LocationID, r.Quantity, r.Token); err != nil {
			return fmt.Errorf("failed to release reservation %s: %w", r.Token, err)
		}
		if err := s.setStatus(r, StatusReleased); err != nil {
			return err
		}
	}
	return nil
}

// ConsumeForOrder converts all active reservations of an order into permanent
// consumption, used when the order is delivered.
func (s *Service) ConsumeForOrder(orderID uint) error {
	reservations, err := s.reservationsInStatus(orderID, StatusActive)
	if err != nil {
		return err
	}

	for i := range reservations {
		r := &reservations[i]
		if err := s.stockService.Consume(r.BatchID, r.LocationID, r.Quantity, r.Token); err != nil {
			return fmt.Errorf("failed to consume reservation %s: %w", r.Token, err)
		}
		if err := s.setStatus(r, StatusConsumed); err != nil {
			return err
		}
	}
	return nil
}

// RestoreForOrder puts an order's consumed quantities back on the shelf, used
// by refunds. Reservations stay untouched.
func (s *Service) RestoreForOrder(orderID uint) error {
	reservations, err := s.reservationsInStatus(orderID, StatusConsumed)
	if err != nil {
		return err
	}

	for i := range reservations {
		r := &reservations[i]
		if err := s.stockService.Restore(r.BatchID, r.LocationID, r.Quantity, r.Token); err != nil {
			return fmt.Errorf("failed to restore reservation %s: %w", r.Token, err)
		}
		if err := s.setStatus(r, StatusRestored); err != nil {
			return err
		}
	}
	return nil
}

// ReservationsForOrder returns all reservation rows tied to an order
func (s *Service) ReservationsForOrder(orderID uint) ([]OrderReservation, error) {
	var reservations []OrderReservation
	if err := s.db.Where("order_id = ?", orderID).Order("id ASC").Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve reservations: %w", err)
	}
	return reservations, nil
}

// Private helpers

func (s *Service) reservationsInStatus(orderID uint, status Status) ([]OrderReservation, error) {
	var reservations []OrderReservation
	err := s.db.
		Where("order_id = ? AND status = ?", orderID, status).
		Order("id ASC").
		Find(&reservations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve reservations: %w", err)
	}
	return reservations, nil
}

func (s *Service) setStatus(r *OrderReservation, status Status) error {
	if err := s.db.Model(r).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	return nil
}

// compensate releases ledger claims made earlier in the same call. Errors are
// swallowed on purpose: the original failure is the one the caller needs to see.
func (s *Service) compensate(reservations []OrderReservation) {
	for i := len(reservations) - 1; i >= 0; i-- {
		r := reservations[i]
		_ = s.stockService.Release(r.BatchID, r.LocationID, r.Quantity, r.Token)
	}
}
