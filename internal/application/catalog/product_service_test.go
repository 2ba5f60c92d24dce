package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/shared"
	csvimport "github.com/retailcore/backend/internal/infrastructure/import"
)

type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*catalog.Product)}
}

func (r *fakeProductRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Product not found")
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := r.products[id]; ok && p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) FindActiveByShop(_ context.Context, tenantID, shopID uuid.UUID) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, p := range r.products {
		if p.TenantID == tenantID && p.ShopID == shopID && p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) Save(_ context.Context, product *catalog.Product) error {
	copied := *product
	r.products[product.ID] = &copied
	return nil
}

func TestProductServiceCreateProduct(t *testing.T) {
	repo := newFakeProductRepo()
	service := NewProductService(repo)
	tenantID, shopID := uuid.New(), uuid.New()

	t.Run("creates product with threshold", func(t *testing.T) {
		resp, err := service.CreateProduct(context.Background(), CreateProductCommand{
			TenantID:          tenantID,
			ShopID:            shopID,
			Name:              "Basmati Rice",
			SKU:               "RICE-5KG",
			Divisible:         true,
			LowStockThreshold: decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		assert.Equal(t, "Basmati Rice", resp.Name)
		assert.True(t, resp.Divisible)
		assert.True(t, resp.LowStockThreshold.Equal(decimal.NewFromInt(10)))
		assert.True(t, resp.Active)
		assert.Contains(t, repo.products, resp.ID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := service.CreateProduct(context.Background(), CreateProductCommand{
			TenantID: tenantID,
			ShopID:   shopID,
			SKU:      "NO-NAME",
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})
}

func TestProductServiceUpdateProduct(t *testing.T) {
	repo := newFakeProductRepo()
	service := NewProductService(repo)
	tenantID, shopID := uuid.New(), uuid.New()

	created, err := service.CreateProduct(context.Background(), CreateProductCommand{
		TenantID: tenantID, ShopID: shopID, Name: "Sugar", SKU: "SUGAR-1KG",
	})
	require.NoError(t, err)

	t.Run("updates fields", func(t *testing.T) {
		name := "Brown Sugar"
		threshold := decimal.NewFromInt(5)
		active := false

		resp, err := service.UpdateProduct(context.Background(), UpdateProductCommand{
			TenantID:          tenantID,
			ProductID:         created.ID,
			Name:              &name,
			LowStockThreshold: &threshold,
			Active:            &active,
		})
		require.NoError(t, err)
		assert.Equal(t, "Brown Sugar", resp.Name)
		assert.True(t, resp.LowStockThreshold.Equal(threshold))
		assert.False(t, resp.Active)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := service.UpdateProduct(context.Background(), UpdateProductCommand{
			TenantID:  tenantID,
			ProductID: uuid.New(),
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("negative threshold rejected", func(t *testing.T) {
		negative := decimal.NewFromInt(-1)
		_, err := service.UpdateProduct(context.Background(), UpdateProductCommand{
			TenantID:          tenantID,
			ProductID:         created.ID,
			LowStockThreshold: &negative,
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})
}

func TestProductServiceImportProducts(t *testing.T) {
	tenantID, shopID := uuid.New(), uuid.New()

	t.Run("imports valid rows and reports bad ones", func(t *testing.T) {
		repo := newFakeProductRepo()
		service := NewProductService(repo)

		csv := "name,sku,divisible,low_stock_threshold\n" +
			"Basmati Rice,RICE-5KG,yes,10\n" +
			",MISSING-NAME,no,\n" +
			"Olive Oil,OIL-1L,no,2.5\n"

		result, err := service.ImportProducts(context.Background(), tenantID, shopID, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 2, result.Imported)
		assert.Equal(t, 1, result.Failed)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeImportRequiredField, result.Errors[0].Code)
		assert.Len(t, repo.products, 2)

		for _, p := range repo.products {
			assert.Equal(t, tenantID, p.TenantID)
			assert.Equal(t, shopID, p.ShopID)
		}
	})

	t.Run("empty file fails the import", func(t *testing.T) {
		service := NewProductService(newFakeProductRepo())

		_, err := service.ImportProducts(context.Background(), tenantID, shopID, strings.NewReader(""))
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("duplicate SKU in file rejected once", func(t *testing.T) {
		repo := newFakeProductRepo()
		service := NewProductService(repo)

		csv := "name,sku\nRice,RICE-1\nRice again,RICE-1\n"
		result, err := service.ImportProducts(context.Background(), tenantID, shopID, strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 1, result.Imported)
		assert.Equal(t, 1, result.Failed)
		assert.Len(t, repo.products, 1)
	})
}
