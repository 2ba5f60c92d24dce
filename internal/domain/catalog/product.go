package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Product is the slice of the catalog the settlement engine needs: identity,
// the name snapshotted onto sale lines, whether fractional quantities are
// legal, and the low-stock threshold used by dashboard queries. Catalog
// management itself (pricing rules, categories, images) lives elsewhere.
type Product struct {
	shared.ShopAggregateRoot
	Name              string          `gorm:"type:varchar(200);not null"`
	SKU               string          `gorm:"type:varchar(100);not null;index"`
	Divisible         bool            `gorm:"not null;default:false"`
	LowStockThreshold decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active            bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(tenantID, shopID uuid.UUID, name, sku string, divisible bool) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product SKU cannot be empty")
	}
	return &Product{
		ShopAggregateRoot: shared.NewShopAggregateRoot(tenantID, shopID),
		Name:              name,
		SKU:               sku,
		Divisible:         divisible,
		Active:            true,
	}, nil
}

// BelongsTo reports whether the product is owned by the given tenant and shop.
func (p *Product) BelongsTo(tenantID, shopID uuid.UUID) bool {
	return p.TenantID == tenantID && p.ShopID == shopID
}

// SetLowStockThreshold sets the quantity below which the product is reported
// as low stock.
func (p *Product) SetLowStockThreshold(threshold decimal.Decimal) error {
	if threshold.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Low stock threshold cannot be negative")
	}
	p.LowStockThreshold = threshold
	return nil
}
