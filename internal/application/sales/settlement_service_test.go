package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// ---- in-memory fakes ----

type fakeProductRepo struct {
	products map[uuid.UUID]*catalog.Product
}

func (r *fakeProductRepo) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*catalog.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) FindByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	found := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			found = append(found, *p)
		}
	}
	return found, nil
}

func (r *fakeProductRepo) FindActiveByShop(_ context.Context, _, shopID uuid.UUID) ([]catalog.Product, error) {
	found := make([]catalog.Product, 0)
	for _, p := range r.products {
		if p.ShopID == shopID && p.Active {
			found = append(found, *p)
		}
	}
	return found, nil
}

func (r *fakeProductRepo) Save(_ context.Context, p *catalog.Product) error {
	r.products[p.ID] = p
	return nil
}

type fakeLotRepo struct {
	lots map[uuid.UUID]*inventory.Lot
}

func (r *fakeLotRepo) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*inventory.Lot, error) {
	lot, ok := r.lots[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return lot, nil
}

func (r *fakeLotRepo) FindConsumable(_ context.Context, _, _ uuid.UUID, productID uuid.UUID, now time.Time) ([]*inventory.Lot, error) {
	found := make([]*inventory.Lot, 0)
	for _, lot := range r.lots {
		if lot.ProductID == productID && lot.IsConsumable(now) {
			found = append(found, lot)
		}
	}
	return found, nil
}

func (r *fakeLotRepo) FindByIDsForUpdate(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]*inventory.Lot, error) {
	found := make([]*inventory.Lot, 0, len(ids))
	for _, id := range ids {
		if lot, ok := r.lots[id]; ok {
			found = append(found, lot)
		}
	}
	return found, nil
}

func (r *fakeLotRepo) FindExpiringWithin(_ context.Context, _, _ uuid.UUID, _ time.Time, _ int) ([]inventory.Lot, error) {
	return nil, nil
}

func (r *fakeLotRepo) FindExpired(_ context.Context, _, _ uuid.UUID, _ time.Time) ([]inventory.Lot, error) {
	return nil, nil
}

func (r *fakeLotRepo) SumRemainingByProduct(_ context.Context, _, _ uuid.UUID, _ time.Time) ([]inventory.ProductStock, error) {
	return nil, nil
}

func (r *fakeLotRepo) Save(_ context.Context, lot *inventory.Lot) error {
	r.lots[lot.ID] = lot
	return nil
}

func (r *fakeLotRepo) SaveAll(_ context.Context, lots []*inventory.Lot) error {
	for _, lot := range lots {
		r.lots[lot.ID] = lot
	}
	return nil
}

type fakeSaleRepo struct {
	sales map[uuid.UUID]*sales.Sale
}

func (r *fakeSaleRepo) FindByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (*sales.Sale, error) {
	sale, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return sale, nil
}

func (r *fakeSaleRepo) FindBySaleNumber(_ context.Context, _ uuid.UUID, number string) (*sales.Sale, error) {
	for _, sale := range r.sales {
		if sale.SaleNumber == number {
			return sale, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeSaleRepo) FindAll(_ context.Context, _, _ uuid.UUID, _ shared.Filter) ([]sales.Sale, error) {
	found := make([]sales.Sale, 0, len(r.sales))
	for _, sale := range r.sales {
		found = append(found, *sale)
	}
	return found, nil
}

func (r *fakeSaleRepo) Save(_ context.Context, sale *sales.Sale) error {
	r.sales[sale.ID] = sale
	return nil
}

func (r *fakeSaleRepo) RevenueTotals(_ context.Context, _, _ uuid.UUID, _, _ time.Time) ([]sales.RevenueTotal, error) {
	return nil, nil
}

type fakeSequence struct {
	next int64
}

func (s *fakeSequence) Next(_ context.Context, _ uuid.UUID, _, _ string) (int64, error) {
	s.next++
	return s.next, nil
}

type recordingNotifier struct {
	completed []*sales.Sale
	cancelled []*sales.Sale
	veto      error
}

func (n *recordingNotifier) SaleCompleted(_ context.Context, _ TransactionalRepositories, sale *sales.Sale, _ *time.Time) error {
	n.completed = append(n.completed, sale)
	return nil
}

func (n *recordingNotifier) SaleCancelled(_ context.Context, _ TransactionalRepositories, sale *sales.Sale) error {
	if n.veto != nil {
		return n.veto
	}
	n.cancelled = append(n.cancelled, sale)
	return nil
}

// ---- fixture ----

type settlementFixture struct {
	service  *SettlementService
	products *fakeProductRepo
	lots     *fakeLotRepo
	sales    *fakeSaleRepo
	notifier *recordingNotifier
	tenantID uuid.UUID
	shopID   uuid.UUID
	sellerID uuid.UUID
	now      time.Time
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		products: &fakeProductRepo{products: make(map[uuid.UUID]*catalog.Product)},
		lots:     &fakeLotRepo{lots: make(map[uuid.UUID]*inventory.Lot)},
		sales:    &fakeSaleRepo{sales: make(map[uuid.UUID]*sales.Sale)},
		notifier: &recordingNotifier{},
		tenantID: uuid.New(),
		shopID:   uuid.New(),
		sellerID: uuid.New(),
		now:      time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	scope := NewNoOpTransactionScope(f.products, f.lots, f.sales, nil, nil)
	f.service = NewSettlementService(scope, f.sales, &fakeSequence{}, shared.FixedClock{Instant: f.now})
	f.service.SetNotifier(f.notifier)
	return f
}

func (f *settlementFixture) addProduct(t *testing.T, name string, divisible bool) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(f.tenantID, f.shopID, name, "SKU-"+name, divisible)
	require.NoError(t, err)
	f.products.products[product.ID] = product
	return product
}

func (f *settlementFixture) addLot(t *testing.T, productID uuid.UUID, batch string, qty string, expiry *time.Time) *inventory.Lot {
	t.Helper()
	quantity, err := valueobject.NewQuantityFromString(qty)
	require.NoError(t, err)
	lot, err := inventory.NewLot(f.tenantID, f.shopID, productID, batch, expiry, quantity)
	require.NoError(t, err)
	f.lots.lots[lot.ID] = lot
	return lot
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

// ---- tests ----

func TestSettlementService_RecordSale(t *testing.T) {
	t.Run("settles a fully paid sale and consumes FIFO by expiration", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Paracetamol", false)
		late := f.addLot(t, product.ID, "B-LATE", "10", datePtr(2024, 9, 1))
		early := f.addLot(t, product.ID, "B-EARLY", "3", datePtr(2024, 6, 1))

		resp, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("23.20"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.NewFromInt(5),
				UnitPrice: decimal.RequireFromString("5.00"),
				TaxRate:   decimal.RequireFromString("16"),
				Discount:  decimal.RequireFromString("5.00"),
			}},
		})
		require.NoError(t, err)

		assert.Equal(t, "VNT-20240315-0001", resp.SaleNumber)
		assert.Equal(t, "COMPLETED", resp.Status)
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("23.20")))
		assert.True(t, resp.Outstanding.IsZero())

		// earliest expiration drained first
		require.Len(t, resp.Lines, 1)
		require.Len(t, resp.Lines[0].Allocations, 2)
		assert.Equal(t, "B-EARLY", resp.Lines[0].Allocations[0].BatchNumber)
		assert.True(t, resp.Lines[0].Allocations[0].Quantity.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, "B-LATE", resp.Lines[0].Allocations[1].BatchNumber)
		assert.True(t, resp.Lines[0].Allocations[1].Quantity.Equal(decimal.NewFromInt(2)))

		assert.True(t, early.RemainingQuantity.IsZero())
		assert.False(t, early.IsActive)
		assert.True(t, late.RemainingQuantity.Equals(valueobject.MustQuantity("8")))

		// fully paid: the finance layer is not involved
		assert.Empty(t, f.notifier.completed)
	})

	t.Run("underpaid sale notifies the finance layer", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Amoxicillin", false)
		f.addLot(t, product.ID, "B1", "20", nil)
		customerID := uuid.New()

		resp, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			CustomerID:  &customerID,
			PaymentType: "ON_CREDIT",
			PaidAmount:  decimal.RequireFromString("30"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.NewFromInt(10),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		require.NoError(t, err)

		assert.True(t, resp.Outstanding.Equal(decimal.RequireFromString("70")))
		require.Len(t, f.notifier.completed, 1)
		assert.Equal(t, resp.ID, f.notifier.completed[0].ID)
	})

	t.Run("underpaid sale without a customer is rejected", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Ibuprofen", false)
		f.addLot(t, product.ID, "B1", "20", nil)

		_, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("5"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.NewFromInt(2),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("insufficient stock aborts with shortfall details", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Vitamin C", false)
		f.addLot(t, product.ID, "B1", "3", nil)

		_, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("50"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.NewFromInt(5),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "2", domainErr.Details["shortfall"])
	})

	t.Run("expired-today stock is not consumable", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Insulin", false)
		// expires on the sale day itself
		f.addLot(t, product.ID, "B-TODAY", "10", datePtr(2024, 3, 15))

		_, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("10"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
	})

	t.Run("fractional quantity on an indivisible product is rejected", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Syringe", false)
		f.addLot(t, product.ID, "B1", "10", nil)

		_, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("10"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.RequireFromString("1.5"),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		assert.Equal(t, shared.CodeFractionalQuantity, shared.ErrorCode(err))
	})

	t.Run("fractional quantity on a divisible product is fine", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Rope", true)
		f.addLot(t, product.ID, "B1", "10", nil)

		resp, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("3.75"),
			Lines: []SaleLineInput{{
				ProductID: product.ID,
				Quantity:  decimal.RequireFromString("2.5"),
				UnitPrice: decimal.RequireFromString("1.50"),
			}},
		})
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(decimal.RequireFromString("3.75")))
	})

	t.Run("unknown product is rejected", func(t *testing.T) {
		f := newSettlementFixture(t)
		_, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("10"),
			Lines: []SaleLineInput{{
				ProductID: uuid.New(),
				Quantity:  decimal.NewFromInt(1),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})

	t.Run("sale numbers increment within the day", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Bandage", false)
		f.addLot(t, product.ID, "B1", "100", nil)

		for i, want := range []string{"VNT-20240315-0001", "VNT-20240315-0002"} {
			resp, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
				TenantID:    f.tenantID,
				ShopID:      f.shopID,
				SellerID:    f.sellerID,
				PaymentType: "CASH",
				PaidAmount:  decimal.RequireFromString("10"),
				Lines: []SaleLineInput{{
					ProductID: product.ID,
					Quantity:  decimal.NewFromInt(1),
					UnitPrice: decimal.RequireFromString("10.00"),
				}},
			})
			require.NoError(t, err, "sale %d", i)
			assert.Equal(t, want, resp.SaleNumber)
		}
	})
}

func TestSettlementService_CancelSale(t *testing.T) {
	settle := func(t *testing.T, f *settlementFixture, productID uuid.UUID) *SaleResponse {
		t.Helper()
		resp, err := f.service.RecordSale(context.Background(), RecordSaleCommand{
			TenantID:    f.tenantID,
			ShopID:      f.shopID,
			SellerID:    f.sellerID,
			PaymentType: "CASH",
			PaidAmount:  decimal.RequireFromString("50"),
			Lines: []SaleLineInput{{
				ProductID: productID,
				Quantity:  decimal.NewFromInt(5),
				UnitPrice: decimal.RequireFromString("10.00"),
			}},
		})
		require.NoError(t, err)
		return resp
	}

	t.Run("cancellation restocks the source lots", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Gauze", false)
		lot := f.addLot(t, product.ID, "B1", "5", nil)
		resp := settle(t, f, product.ID)

		require.True(t, lot.RemainingQuantity.IsZero())
		require.False(t, lot.IsActive)

		cancelled, err := f.service.CancelSale(context.Background(), CancelSaleCommand{
			TenantID: f.tenantID,
			SaleID:   resp.ID,
			Reason:   "customer returned the goods",
		})
		require.NoError(t, err)

		assert.Equal(t, "CANCELLED", cancelled.Status)
		assert.True(t, lot.RemainingQuantity.Equals(valueobject.MustQuantity("5")))
		assert.True(t, lot.IsActive, "restock reactivates a drained lot")
		require.Len(t, f.notifier.cancelled, 1)
	})

	t.Run("finance veto blocks the cancellation", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Tape", false)
		lot := f.addLot(t, product.ID, "B1", "5", nil)
		resp := settle(t, f, product.ID)

		f.notifier.veto = finance.ErrDebtHasPayments

		_, err := f.service.CancelSale(context.Background(), CancelSaleCommand{
			TenantID: f.tenantID,
			SaleID:   resp.ID,
			Reason:   "mistake",
		})
		require.Error(t, err)
		assert.True(t, lot.RemainingQuantity.IsZero(), "veto leaves stock untouched")

		stored, err := f.sales.FindByID(context.Background(), f.tenantID, resp.ID)
		require.NoError(t, err)
		assert.Equal(t, sales.SaleStatusCompleted, stored.Status)
	})

	t.Run("cancelling a cancelled sale fails", func(t *testing.T) {
		f := newSettlementFixture(t)
		product := f.addProduct(t, "Mask", false)
		f.addLot(t, product.ID, "B1", "5", nil)
		resp := settle(t, f, product.ID)

		_, err := f.service.CancelSale(context.Background(), CancelSaleCommand{
			TenantID: f.tenantID, SaleID: resp.ID, Reason: "first",
		})
		require.NoError(t, err)

		_, err = f.service.CancelSale(context.Background(), CancelSaleCommand{
			TenantID: f.tenantID, SaleID: resp.ID, Reason: "second",
		})
		assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
	})
}
