// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"github.com/your-org/warehouse-backend/internal/domain/customer"
	"github.com/your-org/warehouse-backend/internal/domain/location"
	"github.com/your-org/warehouse-backend/internal/domain/order"
	"github.com/your-org/warehouse-backend/internal/domain/payment"
	"github.com/your-org/warehouse-backend/internal/domain/product"
	"github.com/your-org/warehouse-backend/internal/domain/reservation"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		// Base tables
		&product.Category{},
		&product.Product{},
		&customer.Customer{},
		&location.Location{},
		&catalog.Batch{},

		// Stock ledger
		&stock.StockRecord{},
		&stock.StockMovement{},

		// Order domain
		&order.Order{},
		&order.OrderLine{},
		&order.OrderStatusHistory{},
		&reservation.OrderReservation{},
		&payment.Payment{},
	}

	for _, model := range models {
		log.Printf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		// Batch lookups drive allocation: expiry-first scans per product
		"CREATE INDEX IF NOT EXISTS idx_batches_product_status_expiry ON batches(product_id, status, expiry_date)",

		// Stock ledger hot paths
		"CREATE INDEX IF NOT EXISTS idx_stock_records_location ON stock_records(location_id)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_reference ON stock_movements(reference)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_created_at ON stock_movements(created_at DESC)",

		// Order queries
		"CREATE INDEX IF NOT EXISTS idx_orders_customer_status ON orders(customer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_lines_batch ON order_lines(batch_id)",

		// Reservation sweeps (external) scan by status and expiry
		"CREATE INDEX IF NOT EXISTS idx_order_reservations_status_expires ON order_reservations(status, expires_at)",

		// Payment reconciliation
		"CREATE INDEX IF NOT EXISTS idx_payments_order_status ON payments(order_id, status)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds development data
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var categoryCount int64
	m.db.Model(&product.Category{}).Count(&categoryCount)
	if categoryCount > 0 {
		log.Println("Data already seeded, skipping")
		return nil
	}

	categories := []product.Category{
		{Name: "Groceries", Slug: "groceries", IsFresh: false, IsActive: true},
		{Name: "Fresh Produce", Slug: "fresh-produce", IsFresh: true, IsActive: true},
	}
	for i := range categories {
		if err := m.db.Create(&categories[i]).Error; err != nil {
			return fmt.Errorf("failed to seed category: %w", err)
		}
	}

	locations := []location.Location{
		{Code: "WH-A1", Name: "Warehouse aisle A1", MaxCapacity: 5000, IsActive: true},
		{Code: "SH-01", Name: "Front shelf 01", MaxCapacity: 500, IsActive: true},
	}
	for i := range locations {
		if err := m.db.Create(&locations[i]).Error; err != nil {
			return fmt.Errorf("failed to seed location: %w", err)
		}
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}
