// Package integration provides end-to-end business flow tests.
// This file walks a full retail flow against a real PostgreSQL database:
// catalog setup, lot reception, credit sale settlement with FIFO
// consumption, debt repayment, invoicing and cancellation restock.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/retailcore/backend/internal/application/catalog"
	financeapp "github.com/retailcore/backend/internal/application/finance"
	inventoryapp "github.com/retailcore/backend/internal/application/inventory"
	reportapp "github.com/retailcore/backend/internal/application/report"
	salesapp "github.com/retailcore/backend/internal/application/sales"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/infrastructure/cache"
	"github.com/retailcore/backend/internal/infrastructure/persistence"
)

// SettlementTestSetup wires the application services against a containerized
// database, the way the server wires them in production.
type SettlementTestSetup struct {
	DB *TestDB

	TenantID   uuid.UUID
	ShopID     uuid.UUID
	SellerID   uuid.UUID
	CustomerID uuid.UUID
	Now        time.Time

	Products   *catalogapp.ProductService
	Lots       *inventoryapp.LotService
	Settlement *salesapp.SettlementService
	Debts      *financeapp.DebtService
	Invoices   *financeapp.InvoiceService
	Revenue    *reportapp.RevenueService

	DebtRepo *persistence.GormDebtRepository
}

func NewSettlementTestSetup(t *testing.T) *SettlementTestSetup {
	t.Helper()

	testDB := NewTestDB(t)
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)
	clock := shared.FixedClock{Instant: now}

	productRepo := persistence.NewGormProductRepository(testDB.DB)
	lotRepo := persistence.NewGormLotRepository(testDB.DB)
	saleRepo := persistence.NewGormSaleRepository(testDB.DB)
	debtRepo := persistence.NewGormDebtRepository(testDB.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(testDB.DB)
	sequences := persistence.NewGormSequenceGenerator(testDB.DB)
	scope := persistence.NewGormTransactionScope(testDB.DB)

	settlement := salesapp.NewSettlementService(scope, saleRepo, sequences, clock)
	settlement.SetNotifier(financeapp.NewDebtNotifier())

	revenue := reportapp.NewRevenueService(saleRepo, cache.NewInMemoryRevenueCache(), clock)

	return &SettlementTestSetup{
		DB:         testDB,
		TenantID:   uuid.New(),
		ShopID:     uuid.New(),
		SellerID:   uuid.New(),
		CustomerID: uuid.New(),
		Now:        now,
		Products:   catalogapp.NewProductService(productRepo),
		Lots:       inventoryapp.NewLotService(lotRepo, productRepo, clock),
		Settlement: settlement,
		Debts:      financeapp.NewDebtService(scope, debtRepo, clock),
		Invoices:   financeapp.NewInvoiceService(scope, invoiceRepo, sequences, clock),
		Revenue:    revenue,
		DebtRepo:   debtRepo,
	}
}

func (s *SettlementTestSetup) createProduct(t *testing.T, name, sku string) uuid.UUID {
	t.Helper()

	resp, err := s.Products.CreateProduct(context.Background(), catalogapp.CreateProductCommand{
		TenantID:  s.TenantID,
		ShopID:    s.ShopID,
		Name:      name,
		SKU:       sku,
		Divisible: true,
	})
	require.NoError(t, err)
	return resp.ID
}

func (s *SettlementTestSetup) receiveLot(t *testing.T, productID uuid.UUID, batch string, qty int64, expiresIn time.Duration) uuid.UUID {
	t.Helper()

	expiration := s.Now.Add(expiresIn)
	resp, err := s.Lots.ReceiveLot(context.Background(), inventoryapp.ReceiveLotCommand{
		TenantID:       s.TenantID,
		ShopID:         s.ShopID,
		ProductID:      productID,
		BatchNumber:    batch,
		Quantity:       decimal.NewFromInt(qty),
		ExpirationDate: &expiration,
	})
	require.NoError(t, err)
	return resp.ID
}

func TestCreditSaleSettlementFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewSettlementTestSetup(t)
	ctx := context.Background()

	productID := setup.createProduct(t, "Basmati Rice 5kg", "RICE-5KG")

	// Lot A expires first and must be drained before lot B is touched.
	lotA := setup.receiveLot(t, productID, "BATCH-A", 10, 10*24*time.Hour)
	lotB := setup.receiveLot(t, productID, "BATCH-B", 20, 30*24*time.Hour)

	dueDate := setup.Now.Add(14 * 24 * time.Hour)
	sale, err := setup.Settlement.RecordSale(ctx, salesapp.RecordSaleCommand{
		TenantID:    setup.TenantID,
		ShopID:      setup.ShopID,
		SellerID:    setup.SellerID,
		CustomerID:  &setup.CustomerID,
		Currency:    "USD",
		PaymentType: "ON_CREDIT",
		PaidAmount:  decimal.NewFromInt(20),
		DueDate:     &dueDate,
		Lines: []salesapp.SaleLineInput{
			{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(15),
				UnitPrice: decimal.RequireFromString("2.50"),
			},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, sale.SaleNumber)
	assert.Equal(t, "COMPLETED", sale.Status)
	assert.True(t, sale.Total.Equal(decimal.RequireFromString("37.50")), "total: %s", sale.Total)
	assert.True(t, sale.Outstanding.Equal(decimal.RequireFromString("17.50")), "outstanding: %s", sale.Outstanding)

	// FIFO by expiration: all of lot A, the remainder from lot B
	require.Len(t, sale.Lines, 1)
	allocations := sale.Lines[0].Allocations
	require.Len(t, allocations, 2)
	assert.Equal(t, lotA, allocations[0].LotID)
	assert.True(t, allocations[0].Quantity.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, lotB, allocations[1].LotID)
	assert.True(t, allocations[1].Quantity.Equal(decimal.NewFromInt(5)))

	lotAState, err := setup.Lots.GetLot(ctx, setup.TenantID, lotA)
	require.NoError(t, err)
	assert.True(t, lotAState.Quantity.IsZero(), "lot A remaining: %s", lotAState.Quantity)

	lotBState, err := setup.Lots.GetLot(ctx, setup.TenantID, lotB)
	require.NoError(t, err)
	assert.True(t, lotBState.Quantity.Equal(decimal.NewFromInt(15)), "lot B remaining: %s", lotBState.Quantity)

	// The underpaid sale created a client debt in the same transaction
	debt, err := setup.DebtRepo.FindByReference(ctx, setup.TenantID, finance.ReferenceTypeSale, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, setup.CustomerID, debt.PartyID)
	assert.True(t, debt.Balance().Equal(decimal.RequireFromString("17.50")))
	assert.Equal(t, finance.DebtStatusPartial, debt.Status)

	// The down payment collected at the register opens the history
	require.Len(t, debt.Settlements, 1)
	assert.Equal(t, finance.SettlementKindInitial, debt.Settlements[0].Kind)
	assert.Equal(t, sale.SaleNumber, debt.Settlements[0].Reference)
	assert.True(t, debt.SettlementsTotal().Equal(debt.PaidAmount))

	// A partial payment leaves the debt open with a reduced balance
	partial, err := setup.Debts.RecordPayment(ctx, financeapp.RecordDebtPaymentCommand{
		TenantID:      setup.TenantID,
		DebtID:        debt.ID,
		RecordedBy:    setup.SellerID,
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	assert.Equal(t, "PARTIAL", partial.Status)
	assert.True(t, partial.Balance.Equal(decimal.RequireFromString("7.50")))
	require.Len(t, partial.Settlements, 2)

	// Paying the remainder settles the debt
	settled, err := setup.Debts.RecordPayment(ctx, financeapp.RecordDebtPaymentCommand{
		TenantID:      setup.TenantID,
		DebtID:        debt.ID,
		RecordedBy:    setup.SellerID,
		Amount:        decimal.RequireFromString("7.50"),
		PaymentMethod: "MOBILE_MONEY",
		Reference:     "MM-20260510-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "SETTLED", settled.Status)
	assert.True(t, settled.Balance.IsZero())
	require.NotNil(t, settled.SettledAt)

	// Invoice lifecycle: draft on issue, then validated, then paid
	invoice, err := setup.Invoices.Issue(ctx, financeapp.IssueInvoiceCommand{
		TenantID:   setup.TenantID,
		SourceType: finance.ReferenceTypeSale,
		SourceID:   sale.ID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, invoice.InvoiceNumber)
	assert.Equal(t, "DRAFT", invoice.Status)
	assert.True(t, invoice.Total.Equal(sale.Total))

	validated, err := setup.Invoices.Validate(ctx, setup.TenantID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "VALIDATED", validated.Status)

	paid, err := setup.Invoices.MarkPaid(ctx, setup.TenantID, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", paid.Status)

	// A sale whose debt received payments can no longer be cancelled
	_, err = setup.Settlement.CancelSale(ctx, salesapp.CancelSaleCommand{
		TenantID: setup.TenantID,
		SaleID:   sale.ID,
		Reason:   "customer changed their mind",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, finance.ErrDebtHasPayments)

	// The completed sale shows up in the revenue report
	report, err := setup.Revenue.GetRevenue(ctx, setup.TenantID, setup.ShopID,
		setup.Now.Add(-24*time.Hour), setup.Now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, report.Buckets, 1)
	assert.Equal(t, "USD", report.Buckets[0].Currency)
	assert.True(t, report.Buckets[0].Total.Equal(decimal.RequireFromString("37.50")))
	assert.Equal(t, int64(1), report.Buckets[0].SaleCount)
}

func TestCancelSaleRestocksLots(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewSettlementTestSetup(t)
	ctx := context.Background()

	productID := setup.createProduct(t, "Olive Oil 1L", "OIL-1L")
	lotID := setup.receiveLot(t, productID, "BATCH-OIL", 8, 60*24*time.Hour)

	sale, err := setup.Settlement.RecordSale(ctx, salesapp.RecordSaleCommand{
		TenantID:    setup.TenantID,
		ShopID:      setup.ShopID,
		SellerID:    setup.SellerID,
		Currency:    "USD",
		PaymentType: "CASH",
		PaidAmount:  decimal.NewFromInt(18),
		Lines: []salesapp.SaleLineInput{
			{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(3),
				UnitPrice: decimal.NewFromInt(6),
			},
		},
	})
	require.NoError(t, err)
	assert.True(t, sale.Outstanding.IsZero())

	drained, err := setup.Lots.GetLot(ctx, setup.TenantID, lotID)
	require.NoError(t, err)
	require.True(t, drained.Quantity.Equal(decimal.NewFromInt(5)))

	cancelled, err := setup.Settlement.CancelSale(ctx, salesapp.CancelSaleCommand{
		TenantID: setup.TenantID,
		SaleID:   sale.ID,
		Reason:   "void at register",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	restocked, err := setup.Lots.GetLot(ctx, setup.TenantID, lotID)
	require.NoError(t, err)
	assert.True(t, restocked.Quantity.Equal(decimal.NewFromInt(8)), "restocked remaining: %s", restocked.Quantity)

	// A cancelled sale contributes nothing to revenue
	report, err := setup.Revenue.GetRevenue(ctx, setup.TenantID, setup.ShopID,
		setup.Now.Add(-24*time.Hour), setup.Now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, report.Buckets)
}

func TestUnderpaidSaleWithoutCustomerRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewSettlementTestSetup(t)
	ctx := context.Background()

	productID := setup.createProduct(t, "Ground Coffee", "COFFEE-250")
	lotID := setup.receiveLot(t, productID, "BATCH-COFFEE", 12, 90*24*time.Hour)

	_, err := setup.Settlement.RecordSale(ctx, salesapp.RecordSaleCommand{
		TenantID:    setup.TenantID,
		ShopID:      setup.ShopID,
		SellerID:    setup.SellerID,
		Currency:    "USD",
		PaymentType: "CASH",
		PaidAmount:  decimal.NewFromInt(1),
		Lines: []salesapp.SaleLineInput{
			{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(4),
				UnitPrice: decimal.NewFromInt(5),
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	// The failed settlement must not leave consumed stock behind
	lot, err := setup.Lots.GetLot(ctx, setup.TenantID, lotID)
	require.NoError(t, err)
	assert.True(t, lot.Quantity.Equal(decimal.NewFromInt(12)), "remaining after rollback: %s", lot.Quantity)
}
