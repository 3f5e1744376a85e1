// internal/domain/location/service_test.go
package location_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/location"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*location.Service, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&location.Location{}, &stock.StockRecord{}))
	return location.NewService(db, &config.Config{}), db
}

func TestCreateLocation(t *testing.T) {
	svc, _ := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code:        "A-01",
		Name:        "Shelf A1",
		MaxCapacity: 50,
	})
	require.NoError(t, err)
	assert.True(t, loc.IsActive)

	_, err = svc.CreateLocation(&location.CreateLocationRequest{
		Code:        "A-01",
		Name:        "Duplicate",
		MaxCapacity: 10,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCurrentOccupancyCountsHandAndShelf(t *testing.T) {
	svc, db := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code: "A-01", Name: "Shelf A1", MaxCapacity: 50,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&stock.StockRecord{
		BatchID: 1, LocationID: loc.ID,
		QuantityOnHand: 10, QuantityOnShelf: 8, QuantityReserved: 5,
	}).Error)
	require.NoError(t, db.Create(&stock.StockRecord{
		BatchID: 2, LocationID: loc.ID,
		QuantityOnHand: 2, QuantityOnShelf: 0,
	}).Error)

	// Reserved stock is still on the shelf and must not count twice
	occupancy, err := svc.CurrentOccupancy(loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, occupancy)
}

func TestCanAccept(t *testing.T) {
	svc, db := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code: "A-01", Name: "Shelf A1", MaxCapacity: 20,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&stock.StockRecord{
		BatchID: 1, LocationID: loc.ID, QuantityOnHand: 15,
	}).Error)

	ok, err := svc.CanAccept(loc.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanAccept(loc.ID, 6)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanAcceptInactiveLocation(t *testing.T) {
	svc, db := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code: "A-01", Name: "Shelf A1", MaxCapacity: 20,
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(loc).Update("is_active", false).Error)

	ok, err := svc.CanAccept(loc.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeactivateRejectedWhileOccupied(t *testing.T) {
	svc, db := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code: "A-01", Name: "Shelf A1", MaxCapacity: 20,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&stock.StockRecord{
		BatchID: 1, LocationID: loc.ID, QuantityOnShelf: 3,
	}).Error)

	err = svc.DeactivateLocation(loc.ID)
	require.ErrorIs(t, err, location.ErrLocationOccupied)

	// Emptying the location unblocks deactivation
	require.NoError(t, db.Model(&stock.StockRecord{}).
		Where("location_id = ?", loc.ID).
		Update("quantity_on_shelf", 0).Error)
	require.NoError(t, svc.DeactivateLocation(loc.ID))
}

func TestDeleteRejectedWhileOccupied(t *testing.T) {
	svc, db := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code: "A-01", Name: "Shelf A1", MaxCapacity: 20,
	})
	require.NoError(t, err)

	require.NoError(t, db.Create(&stock.StockRecord{
		BatchID: 1, LocationID: loc.ID, QuantityOnHand: 1,
	}).Error)

	err = svc.DeleteLocation(loc.ID)
	require.ErrorIs(t, err, location.ErrLocationOccupied)
}

func TestDeleteEmptyLocation(t *testing.T) {
	svc, _ := newTestService(t)

	loc, err := svc.CreateLocation(&location.CreateLocationRequest{
		Code: "A-01", Name: "Shelf A1", MaxCapacity: 20,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteLocation(loc.ID))

	_, err = svc.GetLocation(loc.ID)
	require.ErrorIs(t, err, location.ErrLocationNotFound)
}
