package report

import (
	"context"

	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

// RevenueCacheInvalidator drops a shop's cached revenue reports when a sale
// is recorded or cancelled. It runs after commit, on the event bus.
type RevenueCacheInvalidator struct {
	service *RevenueService
}

// NewRevenueCacheInvalidator creates the invalidation handler
func NewRevenueCacheInvalidator(service *RevenueService) *RevenueCacheInvalidator {
	return &RevenueCacheInvalidator{service: service}
}

// EventTypes returns the sale lifecycle events the handler subscribes to
func (h *RevenueCacheInvalidator) EventTypes() []string {
	return []string{sales.EventTypeSaleCompleted, sales.EventTypeSaleCancelled}
}

// Handle invalidates the shop's cached reports
func (h *RevenueCacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *sales.SaleCompletedEvent:
		return h.service.Invalidate(ctx, e.TenantID(), e.ShopID)
	case *sales.SaleCancelledEvent:
		return h.service.Invalidate(ctx, e.TenantID(), e.ShopID)
	}
	return nil
}

var _ shared.EventHandler = (*RevenueCacheInvalidator)(nil)
