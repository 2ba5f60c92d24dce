package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// Lot represents one physically received batch of a product sharing a single
// expiration date. Lots are created on receiving, mutated only by the
// consumption and restock operations, and soft-deactivated instead of deleted
// so historical sale lines keep valid references.
type Lot struct {
	shared.BaseAggregateRoot
	TenantID          uuid.UUID            `gorm:"type:uuid;not null;index:idx_lots_product"`
	ShopID            uuid.UUID            `gorm:"type:uuid;not null;index:idx_lots_product"`
	ProductID         uuid.UUID            `gorm:"type:uuid;not null;index:idx_lots_product"`
	BatchNumber       string               `gorm:"type:varchar(100);not null"`
	ExpirationDate    *time.Time           `gorm:"type:date"`
	RemainingQuantity valueobject.Quantity `gorm:"type:decimal(18,4);not null"`
	IsActive          bool                 `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (Lot) TableName() string {
	return "lots"
}

// NewLot creates a new lot from a receiving.
func NewLot(tenantID, shopID, productID uuid.UUID, batchNumber string, expirationDate *time.Time, quantity valueobject.Quantity) (*Lot, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Batch number cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Lot quantity must be positive")
	}

	var expiry *time.Time
	if expirationDate != nil {
		day := shared.StartOfDay(*expirationDate)
		expiry = &day
	}

	lot := &Lot{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		TenantID:          tenantID,
		ShopID:            shopID,
		ProductID:         productID,
		BatchNumber:       batchNumber,
		ExpirationDate:    expiry,
		RemainingQuantity: quantity,
		IsActive:          true,
	}
	lot.AddDomainEvent(NewLotReceivedEvent(lot))
	return lot, nil
}

// IsExpired reports whether the lot is unusable at the given time. A lot with
// no expiration date never expires. The boundary day counts as expired: a lot
// expiring "today" is excluded from consumption.
func (l *Lot) IsExpired(now time.Time) bool {
	if l.ExpirationDate == nil {
		return false
	}
	return !l.ExpirationDate.After(shared.StartOfDay(now))
}

// IsConsumable reports whether the lot can serve a consumption at the given
// time.
func (l *Lot) IsConsumable(now time.Time) bool {
	return l.IsActive && l.RemainingQuantity.IsPositive() && !l.IsExpired(now)
}

// Deduct removes the given quantity from the lot. The caller guarantees the
// quantity does not exceed the remaining amount; exceeding it fails with
// InsufficientQuantity and leaves the lot untouched. A lot reaching zero is
// deactivated in the same step.
func (l *Lot) Deduct(quantity valueobject.Quantity, now time.Time) error {
	remaining, err := l.RemainingQuantity.Subtract(quantity)
	if err != nil {
		return err
	}
	l.RemainingQuantity = remaining
	if remaining.IsZero() {
		l.IsActive = false
	}
	l.UpdatedAt = now
	return nil
}

// Restock returns a previously consumed quantity to the lot, reactivating it
// if it was depleted. Used when a completed sale is cancelled.
func (l *Lot) Restock(quantity valueobject.Quantity, now time.Time) {
	l.RemainingQuantity = l.RemainingQuantity.Add(quantity)
	if l.RemainingQuantity.IsPositive() {
		l.IsActive = true
	}
	l.UpdatedAt = now
}

// Deactivate soft-deactivates the lot so it is never selected again while
// historical sale lines keep referencing it.
func (l *Lot) Deactivate(now time.Time) {
	l.IsActive = false
	l.UpdatedAt = now
}

// DaysUntilExpiry returns the number of whole days until expiry relative to
// now, or -1 if the lot never expires.
func (l *Lot) DaysUntilExpiry(now time.Time) int {
	if l.ExpirationDate == nil {
		return -1
	}
	return int(l.ExpirationDate.Sub(shared.StartOfDay(now)).Hours() / 24)
}
