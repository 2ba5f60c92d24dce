package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
)

// CreateProductCommand registers a product in a shop's catalog
type CreateProductCommand struct {
	TenantID          uuid.UUID
	ShopID            uuid.UUID
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	SKU               string          `json:"sku" binding:"required,min=1,max=100"`
	Divisible         bool            `json:"divisible"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
}

// UpdateProductCommand mutates the editable product fields
type UpdateProductCommand struct {
	TenantID          uuid.UUID
	ProductID         uuid.UUID
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	Active            *bool            `json:"active"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID       `json:"id"`
	ShopID            uuid.UUID       `json:"shop_id"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku"`
	Divisible         bool            `json:"divisible"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	Active            bool            `json:"active"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ToProductResponse converts a product to its response DTO
func ToProductResponse(product *catalog.Product) *ProductResponse {
	return &ProductResponse{
		ID:                product.ID,
		ShopID:            product.ShopID,
		Name:              product.Name,
		SKU:               product.SKU,
		Divisible:         product.Divisible,
		LowStockThreshold: product.LowStockThreshold,
		Active:            product.Active,
		CreatedAt:         product.CreatedAt,
	}
}

// ProductService manages the product catalog
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProduct registers a new product
func (s *ProductService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*ProductResponse, error) {
	product, err := catalog.NewProduct(cmd.TenantID, cmd.ShopID, cmd.Name, cmd.SKU, cmd.Divisible)
	if err != nil {
		return nil, err
	}
	if cmd.LowStockThreshold.IsPositive() {
		if err := product.SetLowStockThreshold(cmd.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// UpdateProduct mutates the editable fields of a product
func (s *ProductService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, cmd.TenantID, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	if cmd.Name != nil {
		if *cmd.Name == "" {
			return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
		}
		product.Name = *cmd.Name
	}
	if cmd.LowStockThreshold != nil {
		if err := product.SetLowStockThreshold(*cmd.LowStockThreshold); err != nil {
			return nil, err
		}
	}
	if cmd.Active != nil {
		product.Active = *cmd.Active
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	return ToProductResponse(product), nil
}

// ListProducts lists the active products of a shop
func (s *ProductService) ListProducts(ctx context.Context, tenantID, shopID uuid.UUID) ([]*ProductResponse, error) {
	products, err := s.productRepo.FindActiveByShop(ctx, tenantID, shopID)
	if err != nil {
		return nil, err
	}
	responses := make([]*ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses, nil
}
