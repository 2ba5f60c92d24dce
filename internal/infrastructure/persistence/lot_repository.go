package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
)

// consumptionOrder sorts lots the way consumption walks them: soonest
// expiration first, never-expiring lots last, ties broken by receipt order.
const consumptionOrder = "expiration_date ASC NULLS LAST, created_at ASC, id ASC"

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by ID within a tenant
func (r *GormLotRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Lot, error) {
	var lot inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&lot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// FindConsumable fetches the active, unexpired, non-empty lots for a product
// in consumption order, under an exclusive row lock so concurrent
// consumptions of the same product serialize. The lock does not wait: a
// contended row fails immediately and surfaces as LockTimeout.
func (r *GormLotRepository) FindConsumable(ctx context.Context, tenantID, shopID, productID uuid.UUID, now time.Time) ([]*inventory.Lot, error) {
	var lots []*inventory.Lot
	query := r.withRowLock(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND shop_id = ? AND product_id = ?", tenantID, shopID, productID).
		Where("is_active = ? AND remaining_quantity > 0", true).
		Where("expiration_date IS NULL OR expiration_date > ?", shared.StartOfDay(now)).
		Order(consumptionOrder)

	if err := query.Find(&lots).Error; err != nil {
		return nil, mapLockError(err)
	}
	return lots, nil
}

// FindByIDsForUpdate fetches lots by ID under the same exclusive lock,
// regardless of active state. Used by restock on sale cancellation.
func (r *GormLotRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*inventory.Lot, error) {
	if len(ids) == 0 {
		return []*inventory.Lot{}, nil
	}

	var lots []*inventory.Lot
	query := r.withRowLock(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Order("id ASC")

	if err := query.Find(&lots).Error; err != nil {
		return nil, mapLockError(err)
	}
	return lots, nil
}

// FindExpiringWithin returns active lots whose expiration date falls inside
// (today, today+days] for a shop.
func (r *GormLotRepository) FindExpiringWithin(ctx context.Context, tenantID, shopID uuid.UUID, now time.Time, days int) ([]inventory.Lot, error) {
	start := shared.StartOfDay(now)
	horizon := start.AddDate(0, 0, days)

	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shop_id = ?", tenantID, shopID).
		Where("is_active = ? AND remaining_quantity > 0", true).
		Where("expiration_date > ? AND expiration_date <= ?", start, horizon).
		Order(consumptionOrder).
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// FindExpired returns lots that still hold quantity but are past (or on)
// their expiration day.
func (r *GormLotRepository) FindExpired(ctx context.Context, tenantID, shopID uuid.UUID, now time.Time) ([]inventory.Lot, error) {
	var lots []inventory.Lot
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND shop_id = ?", tenantID, shopID).
		Where("remaining_quantity > 0").
		Where("expiration_date IS NOT NULL AND expiration_date <= ?", shared.StartOfDay(now)).
		Order("expiration_date ASC, created_at ASC").
		Find(&lots).Error; err != nil {
		return nil, err
	}
	return lots, nil
}

// SumRemainingByProduct returns, per product, the total consumable quantity
// in a shop.
func (r *GormLotRepository) SumRemainingByProduct(ctx context.Context, tenantID, shopID uuid.UUID, now time.Time) ([]inventory.ProductStock, error) {
	var rows []inventory.ProductStock
	if err := r.db.WithContext(ctx).
		Model(&inventory.Lot{}).
		Select("product_id, COALESCE(SUM(remaining_quantity), 0) AS total").
		Where("tenant_id = ? AND shop_id = ?", tenantID, shopID).
		Where("is_active = ? AND remaining_quantity > 0", true).
		Where("expiration_date IS NULL OR expiration_date > ?", shared.StartOfDay(now)).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save creates or updates a lot
func (r *GormLotRepository) Save(ctx context.Context, lot *inventory.Lot) error {
	return r.db.WithContext(ctx).Save(lot).Error
}

// SaveAll persists a batch of mutated lots
func (r *GormLotRepository) SaveAll(ctx context.Context, lots []*inventory.Lot) error {
	for _, lot := range lots {
		if err := r.db.WithContext(ctx).Save(lot).Error; err != nil {
			return err
		}
	}
	return nil
}

// withRowLock adds FOR UPDATE NOWAIT on dialects that support it. SQLite
// serializes writers on its own, so the clause is skipped there.
func (r *GormLotRepository) withRowLock(db *gorm.DB) *gorm.DB {
	if r.db.Dialector.Name() != "postgres" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
}

// mapLockError converts a lock_not_available failure (SQLSTATE 55P03) into
// the domain lock timeout error.
func mapLockError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "55P03" {
		return shared.ErrLockTimeout
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == "55P03" {
		return shared.ErrLockTimeout
	}
	return err
}

// Ensure GormLotRepository implements LotRepository
var _ inventory.LotRepository = (*GormLotRepository)(nil)
