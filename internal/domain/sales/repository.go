package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// RevenueTotal is one currency bucket of the revenue query.
type RevenueTotal struct {
	Currency valueobject.Currency
	Total    decimal.Decimal
	Count    int64
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// FindByID finds a sale with its lines within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindBySaleNumber finds a sale by its number within a tenant
	FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*Sale, error)

	// FindAll lists sales for a shop with filtering
	FindAll(ctx context.Context, tenantID, shopID uuid.UUID, filter shared.Filter) ([]Sale, error)

	// Save persists a sale and its lines
	Save(ctx context.Context, sale *Sale) error

	// RevenueTotals sums completed sales per currency for a shop over
	// [from, to).
	RevenueTotals(ctx context.Context, tenantID, shopID uuid.UUID, from, to time.Time) ([]RevenueTotal, error)
}
