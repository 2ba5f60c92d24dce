package finance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/retailcore/backend/internal/domain/shared"
)

// DebtRepository defines the persistence interface for debts
type DebtRepository interface {
	// FindByID loads a debt with its settlement history
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Debt, error)

	// FindByIDForUpdate loads a debt under an exclusive row lock so a
	// payment cannot race another writer. Returns ErrLockTimeout when the
	// lock cannot be acquired within the bounded wait.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Debt, error)

	// FindByReference looks up the debt created for a source document
	FindByReference(ctx context.Context, tenantID uuid.UUID, refType ReferenceType, refID uuid.UUID) (*Debt, error)

	// FindByParty lists debts of one client or supplier
	FindByParty(ctx context.Context, tenantID, partyID uuid.UUID, filter shared.Filter) ([]*Debt, int64, error)

	// FindOutstanding lists debts that still carry a balance
	FindOutstanding(ctx context.Context, tenantID, shopID uuid.UUID, filter shared.Filter) ([]*Debt, int64, error)

	// FindOverdue lists unsettled debts whose due date is before the given day
	FindOverdue(ctx context.Context, tenantID, shopID uuid.UUID, asOf time.Time, filter shared.Filter) ([]*Debt, int64, error)

	// Save persists the debt and any appended settlements
	Save(ctx context.Context, debt *Debt) error

	// Delete removes a debt. Used only when cancelling the sale that
	// created it and no payment was ever applied.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// InvoiceRepository defines the persistence interface for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, invoiceNumber string) (*Invoice, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType ReferenceType, sourceID uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, tenantID, shopID uuid.UUID, status *InvoiceStatus, filter shared.Filter) ([]*Invoice, int64, error)
	Save(ctx context.Context, invoice *Invoice) error
}
