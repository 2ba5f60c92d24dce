package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/inventory"
)

// ReceiveLotCommand records a new lot entering the shop's stock
type ReceiveLotCommand struct {
	TenantID       uuid.UUID
	ShopID         uuid.UUID
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	BatchNumber    string          `json:"batch_number" binding:"required,min=1,max=100"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	ExpirationDate *time.Time      `json:"expiration_date"`
}

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	BatchNumber    string          `json:"batch_number"`
	Quantity       decimal.Decimal `json:"quantity"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
	DaysToExpiry   *int            `json:"days_to_expiry,omitempty"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// LowStockItem pairs a product with its total consumable quantity
type LowStockItem struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Available   decimal.Decimal `json:"available"`
	Threshold   decimal.Decimal `json:"threshold"`
}

// ToLotResponse converts a lot to its response DTO, deriving days-to-expiry
// against the given time.
func ToLotResponse(lot *inventory.Lot, now time.Time) *LotResponse {
	resp := &LotResponse{
		ID:             lot.ID,
		ProductID:      lot.ProductID,
		BatchNumber:    lot.BatchNumber,
		Quantity:       lot.RemainingQuantity.Amount(),
		ExpirationDate: lot.ExpirationDate,
		Active:         lot.IsActive,
		CreatedAt:      lot.CreatedAt,
	}
	if lot.ExpirationDate != nil {
		days := lot.DaysUntilExpiry(now)
		resp.DaysToExpiry = &days
	}
	return resp
}
