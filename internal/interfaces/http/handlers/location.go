// internal/interfaces/http/handlers/location.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/warehouse-backend/internal/config"
	"github.com/your-org/warehouse-backend/internal/domain/location"
	"gorm.io/gorm"
)

// LocationHandler handles storage location endpoints
type LocationHandler struct {
	locationService *location.Service
	config          *config.Config
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *LocationHandler {
	return &LocationHandler{
		locationService: location.NewService(db, cfg),
		config:          cfg,
	}
}

// CreateLocation handles POST /locations
func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var req location.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	loc, err := h.locationService.CreateLocation(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Location created successfully",
		"data":    loc,
	})
}

// GetLocation handles GET /locations/:id, including current occupancy
func (h *LocationHandler) GetLocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	loc, err := h.locationService.GetLocation(id)
	if err != nil {
		respondError(c, err)
		return
	}

	occupancy, err := h.locationService.CurrentOccupancy(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Location retrieved successfully",
		"data": gin.H{
			"location":  loc,
			"occupancy": occupancy,
			"remaining": loc.MaxCapacity - occupancy,
		},
	})
}

// GetLocations handles GET /locations
func (h *LocationHandler) GetLocations(c *gin.Context) {
	locations, err := h.locationService.GetLocations()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Locations retrieved successfully",
		"data":    locations,
	})
}

// CheckCapacity handles GET /locations/:id/capacity?quantity=N
func (h *LocationHandler) CheckCapacity(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	qty, err := strconv.Atoi(c.DefaultQuery("quantity", "0"))
	if err != nil || qty < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid quantity parameter",
		})
		return
	}

	canAccept, err := h.locationService.CanAccept(id, qty)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Capacity checked successfully",
		"data": gin.H{
			"location_id": id,
			"quantity":    qty,
			"can_accept":  canAccept,
		},
	})
}

// DeactivateLocation handles POST /locations/:id/deactivate
func (h *LocationHandler) DeactivateLocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.locationService.DeactivateLocation(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Location deactivated successfully",
	})
}

// DeleteLocation handles DELETE /locations/:id
func (h *LocationHandler) DeleteLocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.locationService.DeleteLocation(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Location deleted successfully",
	})
}
