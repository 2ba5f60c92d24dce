package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
)

// GormDebtRepository implements DebtRepository using GORM
type GormDebtRepository struct {
	db *gorm.DB
}

// NewGormDebtRepository creates a new GormDebtRepository
func NewGormDebtRepository(db *gorm.DB) *GormDebtRepository {
	return &GormDebtRepository{db: db}
}

// FindByID loads a debt with its settlement history
func (r *GormDebtRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Debt, error) {
	var debt finance.Debt
	if err := r.db.WithContext(ctx).
		Preload("Settlements", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, created_at ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &debt, nil
}

// FindByIDForUpdate loads a debt under an exclusive row lock so a payment
// cannot race another writer.
func (r *GormDebtRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Debt, error) {
	var debt finance.Debt
	query := r.db.WithContext(ctx).
		Preload("Settlements", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC, created_at ASC") }).
		Where("tenant_id = ? AND id = ?", tenantID, id)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"})
	}

	if err := query.First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, mapLockError(err)
	}
	return &debt, nil
}

// FindByReference looks up the debt created for a source document
func (r *GormDebtRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, refType finance.ReferenceType, refID uuid.UUID) (*finance.Debt, error) {
	var debt finance.Debt
	if err := r.db.WithContext(ctx).
		Preload("Settlements").
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ?", tenantID, refType, refID).
		First(&debt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &debt, nil
}

// FindByParty lists debts of one client or supplier
func (r *GormDebtRepository) FindByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter shared.Filter) ([]*finance.Debt, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&finance.Debt{}).
		Where("tenant_id = ? AND party_id = ?", tenantID, partyID)
	return r.listDebts(query, filter)
}

// FindOutstanding lists debts that still carry a balance
func (r *GormDebtRepository) FindOutstanding(ctx context.Context, tenantID, shopID uuid.UUID, filter shared.Filter) ([]*finance.Debt, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&finance.Debt{}).
		Where("tenant_id = ? AND shop_id = ?", tenantID, shopID).
		Where("status IN ?", []finance.DebtStatus{finance.DebtStatusOpen, finance.DebtStatusPartial})
	return r.listDebts(query, filter)
}

// FindOverdue lists unsettled debts whose due date is before the given day
func (r *GormDebtRepository) FindOverdue(ctx context.Context, tenantID, shopID uuid.UUID, asOf time.Time, filter shared.Filter) ([]*finance.Debt, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&finance.Debt{}).
		Where("tenant_id = ? AND shop_id = ?", tenantID, shopID).
		Where("status IN ?", []finance.DebtStatus{finance.DebtStatusOpen, finance.DebtStatusPartial}).
		Where("due_date IS NOT NULL AND due_date < ?", shared.StartOfDay(asOf))
	return r.listDebts(query, filter)
}

// Save persists the debt and any appended settlements
func (r *GormDebtRepository) Save(ctx context.Context, debt *finance.Debt) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(debt).Error
}

// Delete removes a debt. Settlements cascade through the foreign key.
func (r *GormDebtRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&finance.Debt{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// listDebts runs the count-then-page pattern shared by the list queries.
func (r *GormDebtRepository) listDebts(query *gorm.DB, filter shared.Filter) ([]*finance.Debt, int64, error) {
	query = r.applyFilterConditions(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, DebtSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	var debts []*finance.Debt
	if err := query.
		Preload("Settlements").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&debts).Error; err != nil {
		return nil, 0, err
	}
	return debts, total, nil
}

// applyFilterConditions applies filter options without pagination
func (r *GormDebtRepository) applyFilterConditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "shop_id":
			query = query.Where("shop_id = ?", value)
		case "currency":
			query = query.Where("currency = ?", value)
		}
	}
	return query
}

// Ensure GormDebtRepository implements DebtRepository
var _ finance.DebtRepository = (*GormDebtRepository)(nil)
