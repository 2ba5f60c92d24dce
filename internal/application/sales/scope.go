package sales

import (
	"context"
	"time"

	"github.com/retailcore/backend/internal/domain/catalog"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the repositories a
// settlement touches. Everything executed within one scope commits or rolls
// back as a unit: a failed consumption, save or debt creation leaves no
// partial state behind.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the settlement repositories
// within a transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - SaleRepo persists the Sale aggregate with its lines; lines are child
//     entities and have no independent repository.
//   - LotRepo locks and mutates lots; the FIFO plan is computed in the
//     domain layer and applied to the locked rows here.
//   - DebtRepo is reached through the SettlementNotifier so the debt created
//     for an underpaid sale shares the sale's transaction.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() catalog.ProductRepository
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() inventory.LotRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() sales.SaleRepository
	// DebtRepo returns the debt repository scoped to the current transaction
	DebtRepo() finance.DebtRepository
	// InvoiceRepo returns the invoice repository scoped to the current transaction
	InvoiceRepo() finance.InvoiceRepository
}

// SettlementNotifier is told about sale lifecycle changes inside the
// settlement transaction. The finance layer implements it to create the debt
// for an underpaid sale and to retire it on cancellation; because it runs on
// the scope's repositories, its writes commit or roll back with the sale.
type SettlementNotifier interface {
	// SaleCompleted is called after a completed sale was saved and before
	// the transaction commits. Only called when the sale carries an
	// outstanding balance.
	SaleCompleted(ctx context.Context, repos TransactionalRepositories, sale *sales.Sale, dueDate *time.Time) error

	// SaleCancelled is called after a sale was cancelled and before the
	// transaction commits. Returning an error vetoes the cancellation.
	SaleCancelled(ctx context.Context, repos TransactionalRepositories, sale *sales.Sale) error
}

// NoOpTransactionScope runs the function without a real transaction. Useful
// for tests and for wiring without transaction support.
type NoOpTransactionScope struct {
	productRepo catalog.ProductRepository
	lotRepo     inventory.LotRepository
	saleRepo    sales.SaleRepository
	debtRepo    finance.DebtRepository
	invoiceRepo finance.InvoiceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(
	productRepo catalog.ProductRepository,
	lotRepo inventory.LotRepository,
	saleRepo sales.SaleRepository,
	debtRepo finance.DebtRepository,
	invoiceRepo finance.InvoiceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo: productRepo,
		lotRepo:     lotRepo,
		saleRepo:    saleRepo,
		debtRepo:    debtRepo,
		invoiceRepo: invoiceRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository { return s.productRepo }

// LotRepo returns the lot repository.
func (s *NoOpTransactionScope) LotRepo() inventory.LotRepository { return s.lotRepo }

// SaleRepo returns the sale repository.
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository { return s.saleRepo }

// DebtRepo returns the debt repository.
func (s *NoOpTransactionScope) DebtRepo() finance.DebtRepository { return s.debtRepo }

// InvoiceRepo returns the invoice repository.
func (s *NoOpTransactionScope) InvoiceRepo() finance.InvoiceRepository { return s.invoiceRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
