package inventory

import (
	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// Event types for the inventory context
const (
	EventTypeLotReceived  = "inventory.lot.received"
	EventTypeLotConsumed  = "inventory.lot.consumed"
	EventTypeLotDepleted  = "inventory.lot.depleted"
	EventTypeLotRestocked = "inventory.lot.restocked"
)

// LotReceivedEvent is raised when stock is received into a new lot
type LotReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID            `json:"product_id"`
	ShopID      uuid.UUID            `json:"shop_id"`
	BatchNumber string               `json:"batch_number"`
	Quantity    valueobject.Quantity `json:"quantity"`
}

// NewLotReceivedEvent creates a LotReceivedEvent
func NewLotReceivedEvent(lot *Lot) *LotReceivedEvent {
	return &LotReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotReceived, lot.ID, "Lot", lot.TenantID),
		ProductID:       lot.ProductID,
		ShopID:          lot.ShopID,
		BatchNumber:     lot.BatchNumber,
		Quantity:        lot.RemainingQuantity,
	}
}

// LotConsumedEvent is raised for each lot a consumption drew from
type LotConsumedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID            `json:"product_id"`
	ShopID    uuid.UUID            `json:"shop_id"`
	Quantity  valueobject.Quantity `json:"quantity"`
	Depleted  bool                 `json:"depleted"`
}

// NewLotConsumedEvent creates a LotConsumedEvent
func NewLotConsumedEvent(lot *Lot, consumed valueobject.Quantity) *LotConsumedEvent {
	return &LotConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotConsumed, lot.ID, "Lot", lot.TenantID),
		ProductID:       lot.ProductID,
		ShopID:          lot.ShopID,
		Quantity:        consumed,
		Depleted:        !lot.IsActive,
	}
}

// LotRestockedEvent is raised when a sale cancellation returns stock to a lot
type LotRestockedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID            `json:"product_id"`
	ShopID    uuid.UUID            `json:"shop_id"`
	Quantity  valueobject.Quantity `json:"quantity"`
}

// NewLotRestockedEvent creates a LotRestockedEvent
func NewLotRestockedEvent(lot *Lot, quantity valueobject.Quantity) *LotRestockedEvent {
	return &LotRestockedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLotRestocked, lot.ID, "Lot", lot.TenantID),
		ProductID:       lot.ProductID,
		ShopID:          lot.ShopID,
		Quantity:        quantity,
	}
}
