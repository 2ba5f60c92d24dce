package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// LotAllocation records how much of a consumption was taken from one lot.
type LotAllocation struct {
	LotID       uuid.UUID            `json:"lot_id"`
	BatchNumber string               `json:"batch_number"`
	Quantity    valueobject.Quantity `json:"quantity"`
}

// ConsumptionPlan is the outcome of planning a FIFO consumption across the
// lots of one product. Apply executes it.
type ConsumptionPlan struct {
	ProductID   uuid.UUID
	Allocations []LotAllocation
}

// PlanConsumption selects lots FIFO by expiration date for the requested
// quantity. Lots expiring earliest are depleted first; never-expiring lots
// sort last; ties break on lot creation order. Expired lots are never
// selected, including lots expiring on the current day.
//
// Planning is all-or-nothing: if the consumable stock across all lots cannot
// cover the request, it fails with InsufficientStock carrying the shortfall,
// and no lot is touched.
func PlanConsumption(lots []*Lot, productID uuid.UUID, quantity valueobject.Quantity, now time.Time) (*ConsumptionPlan, error) {
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Requested quantity must be positive")
	}

	consumable := make([]*Lot, 0, len(lots))
	available := valueobject.ZeroQuantity()
	for _, lot := range lots {
		if lot.ProductID != productID {
			continue
		}
		if lot.IsConsumable(now) {
			consumable = append(consumable, lot)
			available = available.Add(lot.RemainingQuantity)
		}
	}

	if available.LessThan(quantity) {
		shortfall, _ := quantity.Subtract(available)
		return nil, shared.NewDomainErrorWithDetails(
			shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock: requested %s, available %s", quantity, available),
			map[string]any{
				"product_id": productID.String(),
				"requested":  quantity.String(),
				"available":  available.String(),
				"shortfall":  shortfall.String(),
			},
		)
	}

	sort.SliceStable(consumable, func(i, j int) bool {
		a, b := consumable[i], consumable[j]
		switch {
		case a.ExpirationDate != nil && b.ExpirationDate != nil:
			if !a.ExpirationDate.Equal(*b.ExpirationDate) {
				return a.ExpirationDate.Before(*b.ExpirationDate)
			}
		case a.ExpirationDate != nil:
			return true
		case b.ExpirationDate != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	allocations := make([]LotAllocation, 0, len(consumable))
	remaining := quantity
	for _, lot := range consumable {
		if remaining.IsZero() {
			break
		}
		take := remaining.Min(lot.RemainingQuantity)
		allocations = append(allocations, LotAllocation{
			LotID:       lot.ID,
			BatchNumber: lot.BatchNumber,
			Quantity:    take,
		})
		remaining, _ = remaining.Subtract(take)
	}

	return &ConsumptionPlan{ProductID: productID, Allocations: allocations}, nil
}

// Apply executes the plan against the lots it was computed from, deducting
// each allocation and deactivating lots that reach zero. The lot set must be
// the same one handed to PlanConsumption, still under the caller's lock.
func (p *ConsumptionPlan) Apply(lots []*Lot, now time.Time) error {
	byID := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	for _, alloc := range p.Allocations {
		lot, ok := byID[alloc.LotID]
		if !ok {
			return shared.NewDomainError(shared.CodeNotFound, "Lot from consumption plan not found: "+alloc.LotID.String())
		}
		if err := lot.Deduct(alloc.Quantity, now); err != nil {
			return err
		}
	}
	return nil
}

// TotalQuantity sums the planned allocations.
func (p *ConsumptionPlan) TotalQuantity() valueobject.Quantity {
	total := valueobject.ZeroQuantity()
	for _, alloc := range p.Allocations {
		total = total.Add(alloc.Quantity)
	}
	return total
}

// AvailableQuantity sums the consumable stock across lots for a product at
// the given time.
func AvailableQuantity(lots []*Lot, productID uuid.UUID, now time.Time) valueobject.Quantity {
	total := valueobject.ZeroQuantity()
	for _, lot := range lots {
		if lot.ProductID == productID && lot.IsConsumable(now) {
			total = total.Add(lot.RemainingQuantity)
		}
	}
	return total
}
