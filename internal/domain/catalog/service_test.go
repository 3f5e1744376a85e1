// internal/domain/catalog/service_test.go
package catalog_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*catalog.Service, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Batch{}))

	// Redis is optional for the catalog; price lookups fall through to the DB
	return catalog.NewService(db, nil, &config.Config{}), db
}

func dateString(t time.Time) string {
	return t.Format("2006-01-02")
}

func TestCreateBatch(t *testing.T) {
	svc, _ := newTestService(t)

	batch, err := svc.CreateBatch(&catalog.CreateBatchRequest{
		ProductID:        1,
		BatchNumber:      "LOT-2026-001",
		CostPrice:        250,
		UnitPrice:        500,
		QuantityProduced: 100,
		ManufactureDate:  dateString(time.Now()),
		ExpiryDate:       dateString(time.Now().AddDate(0, 0, 30)),
	})
	require.NoError(t, err)
	assert.Equal(t, catalog.BatchStatusActive, batch.Status)
	assert.Equal(t, int64(0), batch.DiscountPercent)
}

func TestCreateBatchRejectsExpiryBeforeManufacture(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateBatch(&catalog.CreateBatchRequest{
		ProductID:        1,
		BatchNumber:      "LOT-2026-002",
		CostPrice:        250,
		UnitPrice:        500,
		QuantityProduced: 100,
		ManufactureDate:  dateString(time.Now()),
		ExpiryDate:       dateString(time.Now().AddDate(0, 0, -1)),
	})
	require.Error(t, err)
}

func TestCreateBatchRejectsDuplicateNumber(t *testing.T) {
	svc, _ := newTestService(t)

	req := &catalog.CreateBatchRequest{
		ProductID:        1,
		BatchNumber:      "LOT-2026-003",
		CostPrice:        250,
		UnitPrice:        500,
		QuantityProduced: 100,
		ManufactureDate:  dateString(time.Now()),
		ExpiryDate:       dateString(time.Now().AddDate(0, 0, 30)),
	}
	_, err := svc.CreateBatch(req)
	require.NoError(t, err)

	req.ProductID = 2 // Uniqueness holds across products
	_, err = svc.CreateBatch(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestListActiveBatchesOrdersByExpiry(t *testing.T) {
	svc, db := newTestService(t)

	// Created out of expiry order on purpose
	seedBatch(t, db, 1, "LOT-C", time.Now().AddDate(0, 0, 20))
	seedBatch(t, db, 1, "LOT-A", time.Now().AddDate(0, 0, 5))
	seedBatch(t, db, 1, "LOT-B", time.Now().AddDate(0, 0, 10))

	batches, err := svc.ListActiveBatchesForProduct(1)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, "LOT-A", batches[0].BatchNumber)
	assert.Equal(t, "LOT-B", batches[1].BatchNumber)
	assert.Equal(t, "LOT-C", batches[2].BatchNumber)
}

func TestListActiveBatchesExpiresOverdueLazily(t *testing.T) {
	svc, db := newTestService(t)

	overdue := seedBatch(t, db, 1, "LOT-OLD", time.Now().AddDate(0, 0, -1))
	fresh := seedBatch(t, db, 1, "LOT-NEW", time.Now().AddDate(0, 0, 10))

	batches, err := svc.ListActiveBatchesForProduct(1)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, fresh.ID, batches[0].ID)

	// The overdue batch was flipped in storage, not just filtered out
	flipped, err := svc.GetBatch(overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BatchStatusExpired, flipped.Status)
}

func TestListNearExpiryBatches(t *testing.T) {
	_, db := newTestService(t)
	svc := catalog.NewService(db, nil, &config.Config{
		Inventory: config.InventoryConfig{NearExpiryDays: 3},
	})

	soon := seedBatch(t, db, 1, "LOT-SOON", time.Now().AddDate(0, 0, 2))
	seedBatch(t, db, 1, "LOT-FAR", time.Now().AddDate(0, 0, 10))
	overdue := seedBatch(t, db, 1, "LOT-OVER", time.Now().AddDate(0, 0, -1))

	batches, err := svc.ListNearExpiryBatchesForProduct(1)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, soon.ID, batches[0].ID)

	// Overdue batches were expired on read, not reported as near-expiry
	flipped, err := svc.GetBatch(overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BatchStatusExpired, flipped.Status)
}

func TestCurrentUnitPriceAppliesDiscount(t *testing.T) {
	svc, db := newTestService(t)

	batch := seedBatch(t, db, 1, "LOT-P", time.Now().AddDate(0, 0, 10))

	price, err := svc.CurrentUnitPrice(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), price)

	_, err = svc.SetPromotion(batch.ID, &catalog.SetPromotionRequest{DiscountPercent: 20})
	require.NoError(t, err)

	price, err = svc.CurrentUnitPrice(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), price)
}

func TestSetPromotionRejectsOutOfRange(t *testing.T) {
	svc, db := newTestService(t)

	batch := seedBatch(t, db, 1, "LOT-Q", time.Now().AddDate(0, 0, 10))

	_, err := svc.SetPromotion(batch.ID, &catalog.SetPromotionRequest{DiscountPercent: 101})
	require.ErrorIs(t, err, catalog.ErrInvalidDiscount)
}

func TestSetPromotionRejectsInactiveBatch(t *testing.T) {
	svc, db := newTestService(t)

	batch := seedBatch(t, db, 1, "LOT-R", time.Now().AddDate(0, 0, 10))
	_, err := svc.MarkDisposed(batch.ID)
	require.NoError(t, err)

	_, err = svc.SetPromotion(batch.ID, &catalog.SetPromotionRequest{DiscountPercent: 10})
	require.ErrorIs(t, err, catalog.ErrBatchNotActive)
}

func TestTransitionsAreOneWay(t *testing.T) {
	svc, db := newTestService(t)

	batch := seedBatch(t, db, 1, "LOT-S", time.Now().AddDate(0, 0, 10))

	expired, err := svc.MarkExpired(batch.ID)
	require.NoError(t, err)
	assert.Equal(t, catalog.BatchStatusExpired, expired.Status)

	// Expired is terminal; disposal must start from active
	_, err = svc.MarkDisposed(batch.ID)
	require.ErrorIs(t, err, catalog.ErrBatchNotActive)
}

func TestGetBatchNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetBatch(999)
	require.ErrorIs(t, err, catalog.ErrBatchNotFound)
}

func seedBatch(t *testing.T, db *gorm.DB, productID uint, number string, expiry time.Time) *catalog.Batch {
	t.Helper()
	batch := &catalog.Batch{
		ProductID:        productID,
		BatchNumber:      number,
		CostPrice:        250,
		UnitPrice:        500,
		QuantityProduced: 100,
		ManufactureDate:  time.Now().AddDate(0, 0, -2),
		ExpiryDate:       expiry,
		Status:           catalog.BatchStatusActive,
	}
	require.NoError(t, db.Create(batch).Error)
	return batch
}
