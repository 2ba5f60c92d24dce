package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries the identity, timestamps, optimistic-lock
// version, and pending domain events shared by every aggregate.
type BaseAggregateRoot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`

	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot returns a fresh aggregate root with a generated ID
// at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// IncrementVersion bumps the optimistic-lock version.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// AddDomainEvent queues an event for publication after the owning
// transaction commits.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the queued events. Called once they are handed
// to the publisher.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// ShopAggregateRoot extends BaseAggregateRoot with tenant and shop scoping.
// Every aggregate in the settlement engine belongs to exactly one shop of one
// tenant.
type ShopAggregateRoot struct {
	BaseAggregateRoot
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`
	ShopID   uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewShopAggregateRoot creates a new tenant/shop-scoped aggregate root
func NewShopAggregateRoot(tenantID, shopID uuid.UUID) ShopAggregateRoot {
	return ShopAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		TenantID:          tenantID,
		ShopID:            shopID,
	}
}
