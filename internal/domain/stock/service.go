// internal/domain/stock/service.go
package stock

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/location"
	"gorm.io/gorm"
)

// Ledger errors. All of them are recoverable by the caller choosing different
// quantities, batches or locations; the ledger never clamps silently.
var (
	ErrStockRecordNotFound   = errors.New("stock record not found")
	ErrNegativeStock         = errors.New("operation would drive stock negative")
	ErrInsufficientOnHand    = errors.New("insufficient on-hand stock")
	ErrInsufficientAvailable = errors.New("insufficient available stock")
	ErrCapacityExceeded      = errors.New("location capacity exceeded")
	ErrLocationInactive      = errors.New("location is not active")
)

// Service is the single source of truth for stock quantities. Every mutation
// is one conditional UPDATE whose WHERE clause carries the invariant guard, so
// concurrent callers cannot interleave a read-modify-write and oversell.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new stock ledger service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// Record retrieves the stock record for a batch at a location
func (s *Service) Record(batchID, locationID uint) (*StockRecord, error) {
	var record StockRecord
	err := s.db.Where("batch_id = ? AND location_id = ?", batchID, locationID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockRecordNotFound
		}
		return nil, fmt.Errorf("failed to retrieve stock record: %w", err)
	}
	return &record, nil
}

// RecordsForBatch returns the records holding available stock for a batch at
// active locations, in location order. Used by allocation planning; the
// numbers are a snapshot and are re-validated by Reserve.
func (s *Service) RecordsForBatch(batchID uint) ([]StockRecord, error) {
	var records []StockRecord
	err := s.db.
		Where("batch_id = ? AND quantity_on_shelf - quantity_reserved > 0", batchID).
		Where("location_id IN (?)", s.db.Model(&location.Location{}).Select("id").Where("is_active = ?", true)).
		Order("location_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list stock records: %w", err)
	}
	return records, nil
}

// AvailableQuantity returns on-shelf minus reserved for a batch and location
func (s *Service) AvailableQuantity(batchID, locationID uint) (int, error) {
	record, err := s.Record(batchID, locationID)
	if err != nil {
		if errors.Is(err, ErrStockRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.QuantityAvailable(), nil
}

// Movements returns the audit trail for a batch and location, newest first
func (s *Service) Movements(batchID, locationID uint) ([]StockMovement, error) {
	var movements []StockMovement
	err := s.db.
		Where("batch_id = ? AND location_id = ?", batchID, locationID).
		Order("created_at DESC, id DESC").
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve movements: %w", err)
	}
	return movements, nil
}

// AdjustOnHand applies a warehouse receipt or correction. Positive deltas are
// checked against the location capacity; negative deltas fail with
// ErrNegativeStock instead of clamping.
func (s *Service) AdjustOnHand(batchID, locationID uint, delta int, movementType MovementType, notes string) (*StockRecord, error) {
	if movementType != MovementReceipt && movementType != MovementCorrection {
		return nil, fmt.Errorf("invalid movement type for adjustment: %s", movementType)
	}

	var record *StockRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = s.ensureRecord(tx, batchID, locationID)
		if err != nil {
			return err
		}

		if delta > 0 {
			if err := s.checkCapacity(tx, locationID, delta); err != nil {
				return err
			}
		}

		result := tx.Model(&StockRecord{}).
			Where("id = ? AND quantity_on_hand + ? >= 0", record.ID, delta).
			UpdateColumn("quantity_on_hand", gorm.Expr("quantity_on_hand + ?", delta))
		if result.Error != nil {
			return fmt.Errorf("failed to adjust on-hand stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: on-hand %d, delta %d", ErrNegativeStock, record.QuantityOnHand, delta)
		}

		return s.recordMovement(tx, record, movementType, delta, "", notes)
	})
	if err != nil {
		return nil, err
	}
	return s.Record(batchID, locationID)
}

// ShelveStock atomically moves qty units from on-hand to on-shelf
func (s *Service) ShelveStock(batchID, locationID uint, qty int) (*StockRecord, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("shelve quantity must be positive")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lookupRecord(tx, batchID, locationID)
		if err != nil {
			return err
		}

		result := tx.Model(&StockRecord{}).
			Where("id = ? AND quantity_on_hand >= ?", record.ID, qty).
			UpdateColumns(map[string]interface{}{
				"quantity_on_hand":  gorm.Expr("quantity_on_hand - ?", qty),
				"quantity_on_shelf": gorm.Expr("quantity_on_shelf + ?", qty),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to shelve stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: on-hand %d, requested %d", ErrInsufficientOnHand, record.QuantityOnHand, qty)
		}

		return s.recordMovement(tx, record, MovementShelve, qty, "", "")
	})
	if err != nil {
		return nil, err
	}
	return s.Record(batchID, locationID)
}

// Reserve atomically claims qty units of shelf stock for an order. The guard
// quantity_reserved <= quantity_on_shelf rides in the WHERE clause: of two
// racing callers contending for the last units, exactly one succeeds.
func (s *Service) Reserve(batchID, locationID uint, qty int, reference string) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lookupRecord(tx, batchID, locationID)
		if err != nil {
			return err
		}

		result := tx.Model(&StockRecord{}).
			Where("id = ? AND quantity_on_shelf - quantity_reserved >= ?", record.ID, qty).
			UpdateColumn("quantity_reserved", gorm.Expr("quantity_reserved + ?", qty))
		if result.Error != nil {
			return fmt.Errorf("failed to reserve stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: available %d, requested %d", ErrInsufficientAvailable, record.QuantityAvailable(), qty)
		}

		return s.recordMovement(tx, record, MovementReserve, qty, reference, "")
	})
}

// Release atomically returns qty reserved units to available
func (s *Service) Release(batchID, locationID uint, qty int, reference string) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lookupRecord(tx, batchID, locationID)
		if err != nil {
			return err
		}

		result := tx.Model(&StockRecord{}).
			Where("id = ? AND quantity_reserved >= ?", record.ID, qty).
			UpdateColumn("quantity_reserved", gorm.Expr("quantity_reserved - ?", qty))
		if result.Error != nil {
			return fmt.Errorf("failed to release stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: reserved %d, requested %d", ErrNegativeStock, record.QuantityReserved, qty)
		}

		return s.recordMovement(tx, record, MovementRelease, qty, reference, "")
	})
}

// Consume atomically removes qty reserved units from inventory for good
func (s *Service) Consume(batchID, locationID uint, qty int, reference string) error {
	if qty <= 0 {
		return fmt.Errorf("consume quantity must be positive")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lookupRecord(tx, batchID, locationID)
		if err != nil {
			return err
		}

		result := tx.Model(&StockRecord{}).
			Where("id = ? AND quantity_reserved >= ? AND quantity_on_shelf >= ?", record.ID, qty, qty).
			UpdateColumns(map[string]interface{}{
				"quantity_on_shelf": gorm.Expr("quantity_on_shelf - ?", qty),
				"quantity_reserved": gorm.Expr("quantity_reserved - ?", qty),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to consume stock: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: reserved %d, requested %d", ErrNegativeStock, record.QuantityReserved, qty)
		}

		return s.recordMovement(tx, record, MovementConsume, qty, reference, "")
	})
}

// Restore is the inverse of Consume, used by refunds: qty units go back onto
// the shelf without touching reservations. The capacity ceiling is not
// checked: refunded stock physically exists at the location, and rejecting
// the refund would strand the order.
func (s *Service) Restore(batchID, locationID uint, qty int, reference string) error {
	if qty <= 0 {
		return fmt.Errorf("restore quantity must be positive")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.lookupRecord(tx, batchID, locationID)
		if err != nil {
			return err
		}

		result := tx.Model(&StockRecord{}).
			Where("id = ?", record.ID).
			UpdateColumn("quantity_on_shelf", gorm.Expr("quantity_on_shelf + ?", qty))
		if result.Error != nil {
			return fmt.Errorf("failed to restore stock: %w", result.Error)
		}

		return s.recordMovement(tx, record, MovementRestore, qty, reference, "")
	})
}

// Private helpers

func (s *Service) lookupRecord(tx *gorm.DB, batchID, locationID uint) (*StockRecord, error) {
	var record StockRecord
	err := tx.Where("batch_id = ? AND location_id = ?", batchID, locationID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStockRecordNotFound
		}
		return nil, fmt.Errorf("failed to retrieve stock record: %w", err)
	}
	return &record, nil
}

func (s *Service) ensureRecord(tx *gorm.DB, batchID, locationID uint) (*StockRecord, error) {
	record, err := s.lookupRecord(tx, batchID, locationID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrStockRecordNotFound) {
		return nil, err
	}

	record = &StockRecord{
		BatchID:    batchID,
		LocationID: locationID,
	}
	if err := tx.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create stock record: %w", err)
	}
	return record, nil
}

// checkCapacity verifies the location can take delta more units. The location
// row is write-locked first, so concurrent adjustments at the same location
// serialize and the occupancy read cannot race another receipt past the
// ceiling.
func (s *Service) checkCapacity(tx *gorm.DB, locationID uint, delta int) error {
	lock := tx.Model(&location.Location{}).
		Where("id = ?", locationID).
		UpdateColumn("updated_at", time.Now())
	if lock.Error != nil {
		return fmt.Errorf("failed to lock location: %w", lock.Error)
	}
	if lock.RowsAffected == 0 {
		return location.ErrLocationNotFound
	}

	var loc location.Location
	if err := tx.First(&loc, locationID).Error; err != nil {
		return fmt.Errorf("failed to retrieve location: %w", err)
	}
	if !loc.IsActive {
		return fmt.Errorf("%w: '%s'", ErrLocationInactive, loc.Code)
	}

	var occupancy int64
	err := tx.Model(&StockRecord{}).
		Where("location_id = ?", locationID).
		Select("COALESCE(SUM(quantity_on_hand + quantity_on_shelf), 0)").
		Scan(&occupancy).Error
	if err != nil {
		return fmt.Errorf("failed to compute occupancy: %w", err)
	}

	if int(occupancy)+delta > loc.MaxCapacity {
		return fmt.Errorf("%w: occupancy %d + %d > capacity %d at '%s'",
			ErrCapacityExceeded, occupancy, delta, loc.MaxCapacity, loc.Code)
	}
	return nil
}

func (s *Service) recordMovement(tx *gorm.DB, record *StockRecord, movementType MovementType, qty int, reference, notes string) error {
	if reference == "" {
		reference = uuid.New().String()
	}

	movement := &StockMovement{
		StockRecordID: record.ID,
		BatchID:       record.BatchID,
		LocationID:    record.LocationID,
		MovementType:  movementType,
		Quantity:      qty,
		Reference:     reference,
		Notes:         notes,
	}
	if err := tx.Create(movement).Error; err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}
	return nil
}
