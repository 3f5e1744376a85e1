// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/config"
	"gorm.io/gorm"
)

// Catalog errors
var (
	ErrBatchNotFound   = errors.New("batch not found")
	ErrBatchNotActive  = errors.New("batch is not active")
	ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")
)

// Service handles batch lifecycle and promotional pricing lookups
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// CreateBatchRequest represents batch creation data
type CreateBatchRequest struct {
	ProductID        uint   `json:"product_id" binding:"required"`
	BatchNumber      string `json:"batch_number" binding:"required"`
	CostPrice        int64  `json:"cost_price" binding:"required"`
	UnitPrice        int64  `json:"unit_price" binding:"required"`
	QuantityProduced int    `json:"quantity_produced" binding:"required,gt=0"`
	ManufactureDate  string `json:"manufacture_date" binding:"required"` // YYYY-MM-DD
	ExpiryDate       string `json:"expiry_date" binding:"required"`      // YYYY-MM-DD
}

// CreateBatch creates a new batch in active status
func (s *Service) CreateBatch(req *CreateBatchRequest) (*Batch, error) {
	manufactured, err := time.Parse("2006-01-02", req.ManufactureDate)
	if err != nil {
		return nil, fmt.Errorf("invalid manufacture date: %w", err)
	}
	expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date: %w", err)
	}
	if !expiry.After(manufactured) {
		return nil, fmt.Errorf("expiry date must be after manufacture date")
	}

	// Batch numbers are unique across products
	var existing Batch
	if err := s.db.Where("batch_number = ?", req.BatchNumber).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("batch with number '%s' already exists", req.BatchNumber)
	}

	batch := &Batch{
		ProductID:        req.ProductID,
		BatchNumber:      req.BatchNumber,
		CostPrice:        req.CostPrice,
		UnitPrice:        req.UnitPrice,
		QuantityProduced: req.QuantityProduced,
		ManufactureDate:  manufactured,
		ExpiryDate:       expiry,
		Status:           BatchStatusActive,
	}

	if err := s.db.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	return batch, nil
}

// GetBatch retrieves a single batch by ID
func (s *Service) GetBatch(id uint) (*Batch, error) {
	var batch Batch
	if err := s.db.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBatchNotFound
		}
		return nil, fmt.Errorf("failed to retrieve batch: %w", err)
	}
	return &batch, nil
}

// ListActiveBatchesForProduct returns the sellable batches for a product,
// ordered ascending by expiry date with ties broken by creation order. Batches
// whose expiry date has passed are flipped to expired on read; there is no
// background sweep, so a stale status is never observable through this path.
func (s *Service) ListActiveBatchesForProduct(productID uint) ([]Batch, error) {
	if err := s.expireOverdueBatches(productID); err != nil {
		return nil, err
	}

	var batches []Batch
	err := s.db.
		Where("product_id = ? AND status = ?", productID, BatchStatusActive).
		Order("expiry_date ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

// ListNearExpiryBatchesForProduct returns the active batches expiring within
// the configured near-expiry window, soonest first. Surfaces promotion and
// disposal candidates to operators.
func (s *Service) ListNearExpiryBatchesForProduct(productID uint) ([]Batch, error) {
	if err := s.expireOverdueBatches(productID); err != nil {
		return nil, err
	}

	days := 3
	if s.config != nil && s.config.Inventory.NearExpiryDays > 0 {
		days = s.config.Inventory.NearExpiryDays
	}
	cutoff := time.Now().AddDate(0, 0, days)

	var batches []Batch
	err := s.db.
		Where("product_id = ? AND status = ? AND expiry_date <= ?", productID, BatchStatusActive, cutoff).
		Order("expiry_date ASC, id ASC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list near-expiry batches: %w", err)
	}
	return batches, nil
}

// CurrentUnitPrice returns the batch unit price with its active discount
// applied. Results are cached briefly in Redis; promotion and status changes
// invalidate the entry.
func (s *Service) CurrentUnitPrice(batchID uint) (int64, error) {
	if price, ok := s.cachedPrice(batchID); ok {
		return price, nil
	}

	batch, err := s.GetBatch(batchID)
	if err != nil {
		return 0, err
	}

	price := batch.CurrentUnitPrice()
	s.cachePrice(batchID, price)
	return price, nil
}

// SetPromotionRequest represents promotional discount data
type SetPromotionRequest struct {
	DiscountPercent int64 `json:"discount_percent" binding:"min=0,max=100"`
}

// SetPromotion applies a promotional discount to an active batch
func (s *Service) SetPromotion(batchID uint, req *SetPromotionRequest) (*Batch, error) {
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return nil, ErrInvalidDiscount
	}

	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != BatchStatusActive {
		return nil, fmt.Errorf("%w: status is %s", ErrBatchNotActive, batch.Status)
	}

	if err := s.db.Model(batch).Update("discount_percent", req.DiscountPercent).Error; err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}

	s.invalidatePrice(batchID)
	batch.DiscountPercent = req.DiscountPercent
	return batch, nil
}

// MarkExpired explicitly transitions a batch from active to expired
func (s *Service) MarkExpired(batchID uint) (*Batch, error) {
	return s.transition(batchID, BatchStatusExpired)
}

// MarkDisposed transitions a batch from active to disposed by operator action
func (s *Service) MarkDisposed(batchID uint) (*Batch, error) {
	return s.transition(batchID, BatchStatusDisposed)
}

// transition moves an active batch to a terminal status. The guard is part of
// the UPDATE so a concurrent transition cannot double-fire.
func (s *Service) transition(batchID uint, to BatchStatus) (*Batch, error) {
	result := s.db.Model(&Batch{}).
		Where("id = ? AND status = ?", batchID, BatchStatusActive).
		Update("status", to)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update batch status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		batch, err := s.GetBatch(batchID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: status is %s", ErrBatchNotActive, batch.Status)
	}

	s.invalidatePrice(batchID)
	return s.GetBatch(batchID)
}

// expireOverdueBatches lazily flips active batches whose expiry date has
// passed. Expired is terminal, so the one-way UPDATE is safe to repeat.
func (s *Service) expireOverdueBatches(productID uint) error {
	err := s.db.Model(&Batch{}).
		Where("product_id = ? AND status = ? AND expiry_date < ?", productID, BatchStatusActive, time.Now()).
		Update("status", BatchStatusExpired).Error
	if err != nil {
		return fmt.Errorf("failed to expire overdue batches: %w", err)
	}
	return nil
}

// Redis price cache helpers. The cache is best-effort: a missing or failing
// Redis never blocks a price lookup.

func (s *Service) priceKey(batchID uint) string {
	return fmt.Sprintf("catalog:price:%d", batchID)
}

func (s *Service) cachedPrice(batchID uint) (int64, bool) {
	if s.redisClient == nil {
		return 0, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := s.redisClient.Get(ctx, s.priceKey(batchID)).Result()
	if err != nil {
		return 0, false
	}
	price, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

func (s *Service) cachePrice(batchID uint, price int64) {
	if s.redisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ttl := 5 * time.Minute
	if s.config != nil && s.config.Inventory.PriceCacheTTL > 0 {
		ttl = s.config.Inventory.PriceCacheTTL
	}
	s.redisClient.Set(ctx, s.priceKey(batchID), strconv.FormatInt(price, 10), ttl)
}

func (s *Service) invalidatePrice(batchID uint) {
	if s.redisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.redisClient.Del(ctx, s.priceKey(batchID))
}
