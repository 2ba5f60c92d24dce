package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

func newTestInvoice(t *testing.T, tenantID, shopID uuid.UUID, number string, clientID uuid.UUID, total string, issuedAt time.Time) *finance.Invoice {
	t.Helper()

	invoice, err := finance.NewInvoice(
		tenantID, shopID,
		number,
		finance.ReferenceTypeSale, uuid.New(), clientID,
		testMoney(t, total, valueobject.USD),
		testMoney(t, "0", valueobject.USD),
		testMoney(t, total, valueobject.USD),
		issuedAt,
	)
	require.NoError(t, err)
	return invoice
}

func TestGormInvoiceRepository_SaveAndFind(t *testing.T) {
	db := setupPersistenceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	shopID := uuid.New()
	issuedAt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	t.Run("round-trips status transitions", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, shopID, "FAC-2026-0001", uuid.New(), "120.00", issuedAt)
		require.NoError(t, repo.Save(ctx, invoice))

		require.NoError(t, invoice.Validate(issuedAt.Add(time.Hour)))
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindByNumber(ctx, tenantID, "FAC-2026-0001")
		require.NoError(t, err)
		assert.Equal(t, finance.InvoiceStatusValidated, found.Status)
		assert.NotNil(t, found.ValidatedAt)
		assert.True(t, found.TotalAmt.Equal(decimal.RequireFromString("120.00")))
	})

	t.Run("finds the invoice of a source document", func(t *testing.T) {
		invoice := newTestInvoice(t, tenantID, shopID, "FAC-2026-0002", uuid.New(), "80.00", issuedAt)
		require.NoError(t, repo.Save(ctx, invoice))

		found, err := repo.FindBySource(ctx, tenantID, finance.ReferenceTypeSale, invoice.SourceID)
		require.NoError(t, err)
		assert.Equal(t, invoice.ID, found.ID)

		// same ID under another source type does not match
		_, err = repo.FindBySource(ctx, tenantID, finance.ReferenceTypePurchase, invoice.SourceID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns not found for missing invoices", func(t *testing.T) {
		_, err := repo.FindByID(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByNumber(ctx, tenantID, "FAC-NOPE")
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindBySource(ctx, tenantID, finance.ReferenceTypeSale, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormInvoiceRepository_FindAll(t *testing.T) {
	db := setupPersistenceTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	shopID := uuid.New()
	clientID := uuid.New()
	issuedAt := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

	draft := newTestInvoice(t, tenantID, shopID, "FAC-2026-0010", clientID, "10.00", issuedAt)
	require.NoError(t, repo.Save(ctx, draft))

	validated := newTestInvoice(t, tenantID, shopID, "FAC-2026-0011", uuid.New(), "20.00", issuedAt.Add(time.Hour))
	require.NoError(t, validated.Validate(issuedAt.Add(2*time.Hour)))
	require.NoError(t, repo.Save(ctx, validated))

	other := newTestInvoice(t, tenantID, uuid.New(), "FAC-2026-0012", clientID, "30.00", issuedAt)
	require.NoError(t, repo.Save(ctx, other))

	t.Run("lists the shop's invoices newest first", func(t *testing.T) {
		invoices, total, err := repo.FindAll(ctx, tenantID, shopID, nil, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, invoices, 2)
		assert.Equal(t, validated.ID, invoices[0].ID)
		assert.Equal(t, draft.ID, invoices[1].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := finance.InvoiceStatusDraft
		invoices, total, err := repo.FindAll(ctx, tenantID, shopID, &status, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, invoices, 1)
		assert.Equal(t, draft.ID, invoices[0].ID)
	})

	t.Run("filters by party", func(t *testing.T) {
		invoices, total, err := repo.FindAll(ctx, tenantID, shopID, nil, shared.Filter{
			Filters: map[string]any{"party_id": clientID},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, invoices, 1)
		assert.Equal(t, draft.ID, invoices[0].ID)
	})
}

func TestGormSequenceGenerator_Next(t *testing.T) {
	db := setupPersistenceTestDB(t)
	gen := NewGormSequenceGenerator(db)
	ctx := context.Background()

	tenantID := uuid.New()

	t.Run("increments within one numbering window", func(t *testing.T) {
		for want := int64(1); want <= 3; want++ {
			got, err := gen.Next(ctx, tenantID, "sale", "20260310")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("windows are independent", func(t *testing.T) {
		got, err := gen.Next(ctx, tenantID, "sale", "20260311")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = gen.Next(ctx, tenantID, "invoice", "2026")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		got, err = gen.Next(ctx, uuid.New(), "sale", "20260310")
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}
