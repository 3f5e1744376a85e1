// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/interfaces/http/handlers"
	"gorm.io/gorm"
)

// SetupRoutes wires every route group onto the v1 API group
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	SetupBatchRoutes(rg, db, redisClient, cfg)
	SetupLocationRoutes(rg, db, redisClient, cfg)
	SetupInventoryRoutes(rg, db, redisClient, cfg)
	SetupOrderRoutes(rg, db, redisClient, cfg)
	SetupPaymentRoutes(rg, db, redisClient, cfg)
}

// SetupBatchRoutes sets up batch catalog routes
func SetupBatchRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	batchHandler := handlers.NewBatchHandler(db, redisClient, cfg)

	batches := rg.Group("/batches")
	{
		batches.POST("", batchHandler.CreateBatch)
		batches.GET("/:id", batchHandler.GetBatch)
		batches.GET("/:id/price", batchHandler.GetCurrentPrice)
		batches.PATCH("/:id/promotion", batchHandler.SetPromotion)
		batches.PATCH("/:id/expire", batchHandler.MarkExpired)
		batches.PATCH("/:id/dispose", batchHandler.MarkDisposed)
	}

	products := rg.Group("/products")
	{
		products.GET("/:id/batches", batchHandler.ListBatchesForProduct)
	}
}

// SetupLocationRoutes sets up storage location routes
func SetupLocationRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	locationHandler := handlers.NewLocationHandler(db, redisClient, cfg)

	locations := rg.Group("/locations")
	{
		locations.POST("", locationHandler.CreateLocation)
		locations.GET("", locationHandler.GetLocations)
		locations.GET("/:id", locationHandler.GetLocation)
		locations.GET("/:id/capacity", locationHandler.CheckCapacity)
		locations.POST("/:id/deactivate", locationHandler.DeactivateLocation)
		locations.DELETE("/:id", locationHandler.DeleteLocation)
	}
}

// SetupInventoryRoutes sets up stock ledger routes
func SetupInventoryRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	inventoryHandler := handlers.NewInventoryHandler(db, redisClient, cfg)

	inventory := rg.Group("/inventory")
	{
		inventory.POST("/adjust", inventoryHandler.Adjust)
		inventory.GET("/:batch_id/:location_id", inventoryHandler.GetStock)
		inventory.GET("/:batch_id/:location_id/movements", inventoryHandler.GetMovements)
	}
}

// SetupOrderRoutes sets up sales order routes
func SetupOrderRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	orderHandler := handlers.NewOrderHandler(db, redisClient, cfg)

	orders := rg.Group("/orders")
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.GetOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
		orders.POST("/:id/refund", orderHandler.RefundOrder)
		orders.DELETE("/:id", orderHandler.DeleteOrder)
	}
}

// SetupPaymentRoutes sets up payment record routes
func SetupPaymentRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	paymentHandler := handlers.NewPaymentHandler(db, redisClient, cfg)

	payments := rg.Group("/payments")
	{
		payments.POST("", paymentHandler.RecordPayment)
		payments.POST("/:order_id/sync", paymentHandler.SyncOrder)
		payments.GET("/:order_id", paymentHandler.GetPayments)
	}
}
