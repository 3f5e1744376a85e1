// internal/domain/allocation/allocator.go
package allocation

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/warehouse-backend/internal/domain/catalog"
	"github.com/your-org/warehouse-backend/internal/domain/stock"
)

// Allocation errors. ErrInsufficientStock means the requested quantity cannot
// be covered in full; allocation is all-or-nothing per order line, so a
// partial plan is never returned. ErrInvalidSelection means the explicit
// batch choices themselves are malformed.
var (
	ErrInsufficientStock = errors.New("insufficient stock to satisfy request")
	ErrInvalidSelection  = errors.New("invalid batch selection")
)

// Allocation is one (batch, location, quantity) tuple of an allocation plan.
// UnitPrice is the batch price at planning time and is what gets snapshotted
// onto the order line.
type Allocation struct {
	BatchID    uint  `json:"batch_id"`
	LocationID uint  `json:"location_id"`
	Quantity   int   `json:"quantity"`
	UnitPrice  int64 `json:"unit_price"` // In cents
}

// BatchSelection is an explicit caller choice for fresh-category products
type BatchSelection struct {
	BatchID  uint `json:"batch_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,gt=0"`
}

// Allocator turns "sell N units of product P" into a concrete allocation
// plan, soonest expiry first. It only reads; availability is re-validated
// atomically when the plan is reserved.
type Allocator struct {
	catalogService *catalog.Service
	stockService   *stock.Service
}

// NewAllocator creates a new FEFO allocator
func NewAllocator(catalogService *catalog.Service, stockService *stock.Service) *Allocator {
	return &Allocator{
		catalogService: catalogService,
		stockService:   stockService,
	}
}

// Allocate builds an allocation plan for qty units of a product, walking
// batches in ascending expiry order and greedily taking what each batch has
// available across its locations.
func (a *Allocator) Allocate(productID uint, qty int) ([]Allocation, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("allocation quantity must be positive")
	}

	batches, err := a.catalogService.ListActiveBatchesForProduct(productID)
	if err != nil {
		return nil, err
	}

	var plan []Allocation
	remaining := qty
	for _, batch := range batches {
		if remaining == 0 {
			break
		}
		taken, allocations, err := a.takeFromBatch(&batch, remaining)
		if err != nil {
			return nil, err
		}
		plan = append(plan, allocations...)
		remaining -= taken
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%w: product %d short by %d of %d units",
			ErrInsufficientStock, productID, remaining, qty)
	}
	return plan, nil
}

// AllocateExplicit builds a plan from caller-chosen batches, used for
// fresh-category products where operators pick batches by hand. Each choice
// still passes the same availability check as the greedy path.
func (a *Allocator) AllocateExplicit(productID uint, selections []BatchSelection) ([]Allocation, error) {
	if len(selections) == 0 {
		return nil, fmt.Errorf("%w: at least one batch selection is required", ErrInvalidSelection)
	}

	now := time.Now()
	var plan []Allocation
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, fmt.Errorf("%w: selection quantity must be positive", ErrInvalidSelection)
		}

		batch, err := a.catalogService.GetBatch(sel.BatchID)
		if err != nil {
			return nil, err
		}
		if batch.ProductID != productID {
			return nil, fmt.Errorf("%w: batch %d does not belong to product %d", ErrInvalidSelection, sel.BatchID, productID)
		}
		if !batch.IsSellable(now) {
			return nil, fmt.Errorf("%w: batch %d is %s", ErrInsufficientStock, batch.ID, batch.Status)
		}

		taken, allocations, err := a.takeFromBatch(batch, sel.Quantity)
		if err != nil {
			return nil, err
		}
		if taken < sel.Quantity {
			return nil, fmt.Errorf("%w: batch %d short by %d of %d units",
				ErrInsufficientStock, batch.ID, sel.Quantity-taken, sel.Quantity)
		}
		plan = append(plan, allocations...)
	}
	return plan, nil
}

// takeFromBatch greedily takes up to want units from the batch's locations
func (a *Allocator) takeFromBatch(batch *catalog.Batch, want int) (int, []Allocation, error) {
	records, err := a.stockService.RecordsForBatch(batch.ID)
	if err != nil {
		return 0, nil, err
	}

	price := batch.CurrentUnitPrice()
	var allocations []Allocation
	taken := 0
	for _, record := range records {
		if taken == want {
			break
		}
		available := record.QuantityAvailable()
		if available <= 0 {
			continue
		}

		take := want - taken
		if available < take {
			take = available
		}
		allocations = append(allocations, Allocation{
			BatchID:    batch.ID,
			LocationID: record.LocationID,
			Quantity:   take,
			UnitPrice:  price,
		})
		taken += take
	}
	return taken, allocations, nil
}
