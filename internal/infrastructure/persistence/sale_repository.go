package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale with its lines within a tenant
func (r *GormSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindBySaleNumber finds a sale by its number within a tenant
func (r *GormSaleRepository) FindBySaleNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("tenant_id = ? AND sale_number = ?", tenantID, saleNumber).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll lists sales for a shop with filtering
func (r *GormSaleRepository) FindAll(ctx context.Context, tenantID, shopID uuid.UUID, filter shared.Filter) ([]sales.Sale, error) {
	query := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Preload("Lines").
		Where("tenant_id = ? AND shop_id = ?", tenantID, shopID)
	query = r.applyFilter(query, filter)

	var result []sales.Sale
	if err := query.Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// Save persists a sale and its lines
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(sale).Error
}

// RevenueTotals sums completed sales per currency for a shop over [from, to).
func (r *GormSaleRepository) RevenueTotals(ctx context.Context, tenantID, shopID uuid.UUID, from, to time.Time) ([]sales.RevenueTotal, error) {
	var rows []struct {
		Currency string
		Total    decimal.Decimal
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&sales.Sale{}).
		Select("currency, COALESCE(SUM(total), 0) AS total, COUNT(*) AS count").
		Where("tenant_id = ? AND shop_id = ? AND status = ?", tenantID, shopID, sales.SaleStatusCompleted).
		Where("sold_at >= ? AND sold_at < ?", from, to).
		Group("currency").
		Order("currency ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]sales.RevenueTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, sales.RevenueTotal{
			Currency: valueobject.Currency(row.Currency),
			Total:    row.Total,
			Count:    row.Count,
		})
	}
	return totals, nil
}

// applyFilter applies filter options to the query
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "seller_id":
			query = query.Where("seller_id = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "sold_from":
			query = query.Where("sold_at >= ?", value)
		case "sold_to":
			query = query.Where("sold_at < ?", value)
		}
	}

	orderBy := ValidateSortField(filter.OrderBy, SaleSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query.Offset(filter.Offset()).Limit(filter.Limit())
}

// Ensure GormSaleRepository implements SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
