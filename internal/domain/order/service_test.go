// internal/domain/order/service_test.go
package order_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/allocation"
	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"github.com/your-org/warehouse-backend/internal/domain/customer"
	"github.com/your-org/warehouse-backend/internal/domain/location"
	"github.com/your-org/warehouse-backend/internal/domain/order"
	"github.com/your-org/warehouse-backend/internal/domain/product"
	"github.com/your-org/warehouse-backend/internal/domain/reservation"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db    *gorm.DB
	stock *stock.Service
	svc   *order.Service
	loc   *location.Location
	cust  *customer.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&product.Category{},
		&product.Product{},
		&customer.Customer{},
		&location.Location{},
		&catalog.Batch{},
		&stock.StockRecord{},
		&stock.StockMovement{},
		&order.Order{},
		&order.OrderLine{},
		&order.OrderStatusHistory{},
		&reservation.OrderReservation{},
	))

	cfg := &config.Config{
		Inventory: config.InventoryConfig{
			ReservationTTL:  time.Hour,
			DefaultShipping: 999,
		},
	}
	stockService := stock.NewService(db, cfg)
	catalogService := catalog.NewService(db, nil, cfg)
	allocator := allocation.NewAllocator(catalogService, stockService)
	reservationService := reservation.NewService(db, stockService, cfg)

	loc := &location.Location{Code: "A-01", Name: "Shelf A1", MaxCapacity: 10000, IsActive: true}
	require.NoError(t, db.Create(loc).Error)

	cust := &customer.Customer{Name: "Test Customer", Tier: customer.TierRegular, IsActive: true}
	require.NoError(t, db.Create(cust).Error)

	return &fixture{
		db:    db,
		stock: stockService,
		svc:   order.NewService(db, cfg, allocator, reservationService),
		loc:   loc,
		cust:  cust,
	}
}

// seedProduct creates a product with one shelved batch and returns both
func (f *fixture) seedProduct(t *testing.T, sku string, fresh bool, qty int) (*product.Product, *catalog.Batch) {
	t.Helper()
	cat := &product.Category{Name: "Category " + sku, Slug: "cat-" + sku, IsFresh: fresh, IsActive: true}
	require.NoError(t, f.db.Create(cat).Error)

	prod := &product.Product{
		SKU: sku, Name: "Product " + sku, Price: 500,
		CategoryID: cat.ID, Unit: "pcs", IsActive: true,
	}
	require.NoError(t, f.db.Create(prod).Error)

	batch := &catalog.Batch{
		ProductID:        prod.ID,
		BatchNumber:      "LOT-" + sku,
		CostPrice:        250,
		UnitPrice:        500,
		QuantityProduced: qty,
		ManufactureDate:  time.Now().AddDate(0, 0, -2),
		ExpiryDate:       time.Now().AddDate(0, 0, 30),
		Status:           catalog.BatchStatusActive,
	}
	require.NoError(t, f.db.Create(batch).Error)

	if qty > 0 {
		_, err := f.stock.AdjustOnHand(batch.ID, f.loc.ID, qty, stock.MovementReceipt, "")
		require.NoError(t, err)
		_, err = f.stock.ShelveStock(batch.ID, f.loc.ID, qty)
		require.NoError(t, err)
	}
	return prod, batch
}

func (f *fixture) pickupOrder(t *testing.T, productID uint, qty int) *order.Order {
	t.Helper()
	ord, err := f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypePickup,
		Items:        []order.OrderItemRequest{{ProductID: productID, Quantity: qty}},
	}, 1)
	require.NoError(t, err)
	return ord
}

func (f *fixture) markPaid(t *testing.T, orderID uint) {
	t.Helper()
	require.NoError(t, f.db.Model(&order.Order{}).
		Where("id = ?", orderID).
		Update("payment_status", order.PaymentStatusPaid).Error)
}

func (f *fixture) available(t *testing.T, batchID uint) int {
	t.Helper()
	qty, err := f.stock.AvailableQuantity(batchID, f.loc.ID)
	require.NoError(t, err)
	return qty
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 20)

	ord := f.pickupOrder(t, prod.ID, 5)

	assert.Equal(t, order.OrderStatusDraft, ord.Status)
	assert.Equal(t, order.PaymentStatusPending, ord.PaymentStatus)
	assert.NotEmpty(t, ord.OrderNumber)
	require.Len(t, ord.Lines, 1)
	assert.Equal(t, batch.ID, ord.Lines[0].BatchID)
	assert.Equal(t, int64(500), ord.Lines[0].UnitPrice)
	assert.Equal(t, int64(2500), ord.SubtotalAmount)
	assert.Equal(t, int64(0), ord.ShippingFee) // Pickup orders ship nothing
	assert.Equal(t, int64(2500), ord.TotalAmount)

	// The plan was reserved immediately
	assert.Equal(t, 15, f.available(t, batch.ID))
}

func TestCreateOrderAppliesTierDiscount(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 20)

	require.NoError(t, f.db.Model(f.cust).Update("tier", customer.TierGold).Error)

	ord, err := f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:      f.cust.ID,
		DeliveryType:    order.DeliveryTypeDelivery,
		ShippingAddress: "12 Main St",
		Items:           []order.OrderItemRequest{{ProductID: prod.ID, Quantity: 4}},
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(10), ord.DiscountPercent)
	assert.Equal(t, int64(2000), ord.SubtotalAmount)
	assert.Equal(t, int64(200), ord.DiscountAmount)
	assert.Equal(t, int64(999), ord.ShippingFee)
	assert.Equal(t, int64(2799), ord.TotalAmount)
}

func TestCreateOrderRollsBackWhenStockRunsOut(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 3)

	_, err := f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypePickup,
		Items:        []order.OrderItemRequest{{ProductID: prod.ID, Quantity: 5}},
	}, 1)
	require.ErrorIs(t, err, allocation.ErrInsufficientStock)

	// Nothing persisted, nothing reserved
	assert.Equal(t, 3, f.available(t, batch.ID))
	var count int64
	require.NoError(t, f.db.Model(&order.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	// Delivery without an address
	_, err := f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypeDelivery,
		Items:        []order.OrderItemRequest{{ProductID: prod.ID, Quantity: 1}},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	// No items
	_, err = f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypePickup,
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	// Unknown customer
	_, err = f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   9999,
		DeliveryType: order.DeliveryTypePickup,
		Items:        []order.OrderItemRequest{{ProductID: prod.ID, Quantity: 1}},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)
}

func TestCreateOrderFreshProductSelections(t *testing.T) {
	f := newFixture(t)
	regular, _ := f.seedProduct(t, "SKU-REG", false, 10)
	freshProd, freshBatch := f.seedProduct(t, "SKU-FRESH", true, 10)

	// Manual selections are rejected for non-fresh products
	_, err := f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypePickup,
		Items: []order.OrderItemRequest{{
			ProductID: regular.ID, Quantity: 2,
			BatchSelections: []allocation.BatchSelection{{BatchID: freshBatch.ID, Quantity: 2}},
		}},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	// Selections must cover the requested quantity exactly
	_, err = f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypePickup,
		Items: []order.OrderItemRequest{{
			ProductID: freshProd.ID, Quantity: 5,
			BatchSelections: []allocation.BatchSelection{{BatchID: freshBatch.ID, Quantity: 3}},
		}},
	}, 1)
	require.ErrorIs(t, err, order.ErrValidation)

	// Matching selections go through
	ord, err := f.svc.CreateOrder(&order.CreateOrderRequest{
		CustomerID:   f.cust.ID,
		DeliveryType: order.DeliveryTypePickup,
		Items: []order.OrderItemRequest{{
			ProductID: freshProd.ID, Quantity: 5,
			BatchSelections: []allocation.BatchSelection{{BatchID: freshBatch.ID, Quantity: 5}},
		}},
	}, 1)
	require.NoError(t, err)
	require.Len(t, ord.Lines, 1)
	assert.Equal(t, freshBatch.ID, ord.Lines[0].BatchID)
}

func TestDeliveryRequiresPayment(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 4)

	_, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusDelivered, "", 1)
	require.ErrorIs(t, err, order.ErrPaymentNotComplete)

	// The guard left the reservation untouched
	assert.Equal(t, 6, f.available(t, batch.ID))
}

func TestDeliveryConsumesReservations(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 4)
	f.markPaid(t, ord.ID)

	delivered, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusDelivered, "", 1)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)

	record, err := f.stock.Record(batch.ID, f.loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, record.QuantityOnShelf)
	assert.Equal(t, 0, record.QuantityReserved)
}

func TestInvalidTransitionsRejected(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 1)

	// Draft cannot ship directly
	_, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusShipping, "", 1)
	require.ErrorIs(t, err, order.ErrInvalidTransition)

	// Refunded is never reachable through the generic transition
	_, err = f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusRefunded, "", 1)
	require.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestCancelReleasesReservations(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 7)
	assert.Equal(t, 3, f.available(t, batch.ID))

	cancelled, err := f.svc.CancelOrder(ord.ID, "customer changed mind", 1)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.available(t, batch.ID))
}

func TestCancelRejectedAfterDelivery(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 2)
	f.markPaid(t, ord.ID)
	_, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusDelivered, "", 1)
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ord.ID, "", 1)
	require.ErrorIs(t, err, order.ErrInvalidTransition)
}

func TestRefundRestoresStock(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 4)
	f.markPaid(t, ord.ID)
	_, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusDelivered, "", 1)
	require.NoError(t, err)

	refunded, err := f.svc.RefundOrder(ord.ID, "damaged goods", 1)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusRefunded, refunded.Status)
	assert.Equal(t, order.PaymentStatusRefunded, refunded.PaymentStatus)
	assert.Equal(t, "damaged goods", refunded.RefundReason)

	// The full quantity is sellable again, with no reservation residue
	record, err := f.stock.Record(batch.ID, f.loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, record.QuantityOnShelf)
	assert.Equal(t, 0, record.QuantityReserved)
}

func TestRefundRejectedBeforeDelivery(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 2)
	f.markPaid(t, ord.ID)

	_, err := f.svc.RefundOrder(ord.ID, "", 1)
	require.ErrorIs(t, err, order.ErrRefundNotAllowed)
}

func TestDeleteDraftOrder(t *testing.T) {
	f := newFixture(t)
	prod, batch := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 3)

	require.NoError(t, f.svc.DeleteOrder(ord.ID))

	_, err := f.svc.GetOrder(ord.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.Equal(t, 10, f.available(t, batch.ID))
}

func TestDeleteRejectedOnceProcessing(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 3)
	_, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusProcessing, "", 1)
	require.NoError(t, err)

	err = f.svc.DeleteOrder(ord.ID)
	require.ErrorIs(t, err, order.ErrDeleteNotAllowed)
}

func TestOnPaymentConfirmedAdvancesDraft(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 2)

	require.NoError(t, f.svc.OnPaymentConfirmed(ord.ID))

	advanced, err := f.svc.GetOrder(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusPending, advanced.Status)

	// Already-advanced orders are left alone
	_, err = f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusProcessing, "", 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.OnPaymentConfirmed(ord.ID))
	same, err := f.svc.GetOrder(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderStatusProcessing, same.Status)
}

func TestGetOrdersFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 100)

	for i := 0; i < 5; i++ {
		f.pickupOrder(t, prod.ID, 1)
	}
	cancelled := f.pickupOrder(t, prod.ID, 1)
	_, err := f.svc.CancelOrder(cancelled.ID, "", 1)
	require.NoError(t, err)

	orders, total, err := f.svc.GetOrders(&order.OrderListRequest{
		Status: order.OrderStatusDraft, Page: 1, Limit: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, orders, 3)
}

func TestStatusHistoryTrail(t *testing.T) {
	f := newFixture(t)
	prod, _ := f.seedProduct(t, "SKU-1", false, 10)

	ord := f.pickupOrder(t, prod.ID, 1)
	f.markPaid(t, ord.ID)
	_, err := f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusProcessing, "picking", 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusShipping, "", 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ord.ID, order.OrderStatusDelivered, "", 1)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&order.OrderStatusHistory{}).
		Where("order_id = ?", ord.ID).Count(&count).Error)
	assert.Equal(t, int64(4), count) // created + 3 transitions
}
