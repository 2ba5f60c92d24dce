package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// Event types for the sales context
const (
	EventTypeSaleCompleted = "sales.sale.completed"
	EventTypeSaleCancelled = "sales.sale.cancelled"
)

// SaleCompletedEvent is raised when a sale is finalized
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	ShopID     uuid.UUID            `json:"shop_id"`
	SaleNumber string               `json:"sale_number"`
	Currency   valueobject.Currency `json:"currency"`
	Total      decimal.Decimal      `json:"total"`
	PaidAmount decimal.Decimal      `json:"paid_amount"`
	Underpaid  bool                 `json:"underpaid"`
}

// NewSaleCompletedEvent creates a SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, sale.ID, "Sale", sale.TenantID),
		ShopID:          sale.ShopID,
		SaleNumber:      sale.SaleNumber,
		Currency:        sale.Currency,
		Total:           sale.Total,
		PaidAmount:      sale.PaidAmount,
		Underpaid:       sale.IsUnderpaid(),
	}
}

// SaleCancelledEvent is raised when a sale is voided
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	ShopID     uuid.UUID `json:"shop_id"`
	SaleNumber string    `json:"sale_number"`
	Reason     string    `json:"reason"`
}

// NewSaleCancelledEvent creates a SaleCancelledEvent
func NewSaleCancelledEvent(sale *Sale, reason string) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, sale.ID, "Sale", sale.TenantID),
		ShopID:          sale.ShopID,
		SaleNumber:      sale.SaleNumber,
		Reason:          reason,
	}
}
