package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStock pairs a product with its total consumable quantity, for the
// low-stock dashboard query.
type ProductStock struct {
	ProductID uuid.UUID
	Total     decimal.Decimal
}

// LotRepository defines the interface for lot persistence
type LotRepository interface {
	// FindByID finds a lot by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Lot, error)

	// FindConsumable fetches the active, unexpired, non-empty lots for a
	// product in a shop. Implementations must take an exclusive row lock on
	// the returned lots with a bounded wait, failing with LockTimeout, so
	// concurrent consumptions of the same product serialize.
	FindConsumable(ctx context.Context, tenantID, shopID, productID uuid.UUID, now time.Time) ([]*Lot, error)

	// FindByIDsForUpdate fetches lots by ID under the same exclusive lock,
	// regardless of active state. Used by restock on sale cancellation.
	FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*Lot, error)

	// FindExpiringWithin returns active lots whose expiration date falls
	// inside (now, now+days] for a shop.
	FindExpiringWithin(ctx context.Context, tenantID, shopID uuid.UUID, now time.Time, days int) ([]Lot, error)

	// FindExpired returns lots that still hold quantity but are past (or on)
	// their expiration day.
	FindExpired(ctx context.Context, tenantID, shopID uuid.UUID, now time.Time) ([]Lot, error)

	// SumRemainingByProduct returns, per product, the total consumable
	// quantity in a shop.
	SumRemainingByProduct(ctx context.Context, tenantID, shopID uuid.UUID, now time.Time) ([]ProductStock, error)

	// Save creates or updates a lot
	Save(ctx context.Context, lot *Lot) error

	// SaveAll persists a batch of mutated lots
	SaveAll(ctx context.Context, lots []*Lot) error
}
