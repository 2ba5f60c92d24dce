package finance

import (
	"context"
	"errors"
	"time"

	appsales "github.com/retailcore/backend/internal/application/sales"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
)

// DebtNotifier implements the settlement notifier: it creates the client
// debt for an underpaid sale and retires it when the sale is cancelled.
// Because it runs on the settlement's transactional repositories, the debt
// commits or rolls back together with the sale.
type DebtNotifier struct {
	publisher shared.EventPublisher
}

// NewDebtNotifier creates a new DebtNotifier
func NewDebtNotifier() *DebtNotifier {
	return &DebtNotifier{}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (n *DebtNotifier) SetEventPublisher(publisher shared.EventPublisher) {
	n.publisher = publisher
}

// SaleCompleted creates a client debt for the sale's outstanding balance.
func (n *DebtNotifier) SaleCompleted(ctx context.Context, repos appsales.TransactionalRepositories, sale *sales.Sale, dueDate *time.Time) error {
	if sale.CustomerID == nil {
		return shared.NewDomainError(shared.CodeValidation, "A sale with an outstanding balance requires a customer")
	}

	debt, err := finance.NewDebt(
		sale.TenantID, sale.ShopID,
		finance.DebtTypeClient, *sale.CustomerID,
		sale.TotalMoney(), sale.PaidMoney(),
		finance.ReferenceTypeSale, sale.ID,
		dueDate,
		&finance.InitialPayment{
			Method:     string(sale.PaymentType),
			Reference:  sale.SaleNumber,
			RecordedBy: sale.SellerID,
		},
	)
	if err != nil {
		return err
	}
	if err := repos.DebtRepo().Save(ctx, debt); err != nil {
		return err
	}

	if n.publisher != nil {
		_ = n.publisher.Publish(ctx, debt.GetDomainEvents()...)
		debt.ClearDomainEvents()
	}
	return nil
}

// SaleCancelled removes the sale's debt when nothing was collected against
// it after creation. The initial settlement mirrors the sale's own down
// payment and is refunded with the sale, so only payments recorded against
// the debt itself veto the cancellation.
func (n *DebtNotifier) SaleCancelled(ctx context.Context, repos appsales.TransactionalRepositories, sale *sales.Sale) error {
	debt, err := repos.DebtRepo().FindByReference(ctx, sale.TenantID, finance.ReferenceTypeSale, sale.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || shared.ErrorCode(err) == shared.CodeNotFound {
			return nil // fully paid sale, nothing to retire
		}
		return err
	}

	if debt.HasRecordedPayments() {
		return finance.ErrDebtHasPayments
	}
	return repos.DebtRepo().Delete(ctx, sale.TenantID, debt.ID)
}

var _ appsales.SettlementNotifier = (*DebtNotifier)(nil)
