package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
)

// newMockProductRepository creates a GormProductRepository with a mocked SQL connection
func newMockProductRepository(t *testing.T) (*GormProductRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormProductRepository(gormDB), mock, mockDB
}

func TestNewGormProductRepository(t *testing.T) {
	t.Run("creates repository with valid DB", func(t *testing.T) {
		repo, _, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("finds existing product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()
		shopID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "version", "tenant_id", "shop_id", "name", "sku", "divisible", "low_stock_threshold", "active"}).
			AddRow(productID, 1, tenantID, shopID, "Rice 25kg", "RICE-25", false, decimal.NewFromInt(5), true)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, 1).
			WillReturnRows(rows)

		product, err := repo.FindByID(context.Background(), tenantID, productID)

		assert.NoError(t, err)
		assert.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "Rice 25kg", product.Name)
		assert.False(t, product.Divisible)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for non-existent product", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		tenantID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByID(context.Background(), tenantID, productID)

		assert.Nil(t, product)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindByIDs(t *testing.T) {
	t.Run("returns empty result for no ids", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		products, err := repo.FindByIDs(context.Background(), uuid.New(), nil)

		assert.NoError(t, err)
		assert.Empty(t, products)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("finds products by ids", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		idA := uuid.New()
		idB := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "name", "sku", "divisible", "active"}).
			AddRow(idA, tenantID, "Rice 25kg", "RICE-25", false, true).
			AddRow(idB, tenantID, "Sugar 1kg", "SUGAR-1", true, true)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND id IN \(\$2,\$3\)`).
			WithArgs(tenantID, idA, idB).
			WillReturnRows(rows)

		products, err := repo.FindByIDs(context.Background(), tenantID, []uuid.UUID{idA, idB})

		assert.NoError(t, err)
		assert.Len(t, products, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindActiveByShop(t *testing.T) {
	t.Run("lists active products ordered by name", func(t *testing.T) {
		repo, mock, mockDB := newMockProductRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		shopID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "shop_id", "name", "sku", "divisible", "active"}).
			AddRow(uuid.New(), tenantID, shopID, "Flour 5kg", "FLOUR-5", true, true).
			AddRow(uuid.New(), tenantID, shopID, "Rice 25kg", "RICE-25", false, true)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE tenant_id = \$1 AND shop_id = \$2 AND active = \$3 ORDER BY name ASC`).
			WithArgs(tenantID, shopID, true).
			WillReturnRows(rows)

		products, err := repo.FindActiveByShop(context.Background(), tenantID, shopID)

		assert.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Flour 5kg", products[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
