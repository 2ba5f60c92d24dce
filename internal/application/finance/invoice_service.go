package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	appsales "github.com/retailcore/backend/internal/application/sales"
	"github.com/retailcore/backend/internal/domain/finance"
	"github.com/retailcore/backend/internal/domain/sales"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// InvoiceNumberPrefix is the document prefix for invoice numbers
const InvoiceNumberPrefix = "FAC"

// InvoiceService issues invoices for completed sales and supplier purchases
// and drives the draft -> validated -> paid status machine.
type InvoiceService struct {
	scope       appsales.TransactionScope
	invoiceRepo finance.InvoiceRepository
	sequences   shared.SequenceGenerator
	clock       shared.Clock
	publisher   shared.EventPublisher
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	scope appsales.TransactionScope,
	invoiceRepo finance.InvoiceRepository,
	sequences shared.SequenceGenerator,
	clock shared.Clock,
) *InvoiceService {
	return &InvoiceService{
		scope:       scope,
		invoiceRepo: invoiceRepo,
		sequences:   sequences,
		clock:       clock,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Issue creates a draft invoice for a source document, numbered per shop and
// year. A source gets at most one invoice.
func (s *InvoiceService) Issue(ctx context.Context, cmd IssueInvoiceCommand) (*InvoiceResponse, error) {
	var invoice *finance.Invoice
	now := s.clock.Now()

	err := s.scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
		if existing, err := repos.InvoiceRepo().FindBySource(ctx, cmd.TenantID, cmd.SourceType, cmd.SourceID); err == nil && existing != nil {
			return shared.NewDomainErrorWithDetails(shared.CodeAlreadyExists, "Source already has an invoice",
				map[string]any{"invoice_number": existing.InvoiceNumber})
		}

		var err error
		switch cmd.SourceType {
		case finance.ReferenceTypeSale:
			invoice, err = s.issueForSale(ctx, repos, cmd, now)
		case finance.ReferenceTypePurchase:
			invoice, err = s.issueForPurchase(ctx, cmd, now)
		default:
			return shared.NewDomainError(shared.CodeValidation, "Unknown source type")
		}
		if err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, invoice)
	return ToInvoiceResponse(invoice), nil
}

// issueForSale snapshots the amounts of a completed sale.
func (s *InvoiceService) issueForSale(ctx context.Context, repos appsales.TransactionalRepositories, cmd IssueInvoiceCommand, now time.Time) (*finance.Invoice, error) {
	sale, err := repos.SaleRepo().FindByID(ctx, cmd.TenantID, cmd.SourceID)
	if err != nil {
		return nil, err
	}
	if sale.Status != sales.SaleStatusCompleted {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Only a completed sale can be invoiced, sale is %s", sale.Status))
	}
	if sale.CustomerID == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "An invoice requires an identified client")
	}

	number, err := s.nextInvoiceNumber(ctx, sale.TenantID, sale.ShopID)
	if err != nil {
		return nil, err
	}

	subtotal, err := valueobject.NewMoney(sale.Subtotal, sale.Currency)
	if err != nil {
		return nil, err
	}
	taxTotal, err := valueobject.NewMoney(sale.TaxAmount, sale.Currency)
	if err != nil {
		return nil, err
	}

	return finance.NewInvoice(
		sale.TenantID, sale.ShopID,
		number,
		finance.ReferenceTypeSale, sale.ID, *sale.CustomerID,
		subtotal, taxTotal, sale.TotalMoney(),
		now,
	)
}

// issueForPurchase bills a supplier purchase from caller-supplied details.
// Purchases carry no stored document to snapshot amounts from.
func (s *InvoiceService) issueForPurchase(ctx context.Context, cmd IssueInvoiceCommand, now time.Time) (*finance.Invoice, error) {
	details := cmd.Purchase
	if details == nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "A purchase invoice requires billing details")
	}

	currency := valueobject.Currency(details.Currency)
	if !currency.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unknown currency %q", details.Currency))
	}
	subtotal, err := valueobject.NewMoney(details.Subtotal, currency)
	if err != nil {
		return nil, err
	}
	taxTotal, err := valueobject.NewMoney(details.TaxTotal, currency)
	if err != nil {
		return nil, err
	}
	total, err := subtotal.Add(taxTotal)
	if err != nil {
		return nil, err
	}

	number, err := s.nextInvoiceNumber(ctx, cmd.TenantID, details.ShopID)
	if err != nil {
		return nil, err
	}

	return finance.NewInvoice(
		cmd.TenantID, details.ShopID,
		number,
		finance.ReferenceTypePurchase, cmd.SourceID, details.SupplierID,
		subtotal, taxTotal, total,
		now,
	)
}

// Validate finalizes a draft invoice
func (s *InvoiceService) Validate(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, tenantID, invoiceID, func(invoice *finance.Invoice) error {
		return invoice.Validate(s.clock.Now())
	})
}

// MarkPaid records full payment of a validated invoice
func (s *InvoiceService) MarkPaid(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, tenantID, invoiceID, func(invoice *finance.Invoice) error {
		return invoice.MarkPaid(s.clock.Now())
	})
}

// GetInvoice retrieves an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// ListInvoices lists invoices for a shop, optionally by status
func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID, shopID uuid.UUID, status string, filter DebtListFilter) ([]*InvoiceResponse, int64, error) {
	var statusFilter *finance.InvoiceStatus
	if status != "" {
		parsed := finance.InvoiceStatus(status)
		if !parsed.IsValid() {
			return nil, 0, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unknown invoice status %q", status))
		}
		statusFilter = &parsed
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, tenantID, shopID, statusFilter, toDomainFilter(filter))
	if err != nil {
		return nil, 0, err
	}
	responses := make([]*InvoiceResponse, 0, len(invoices))
	for _, invoice := range invoices {
		responses = append(responses, ToInvoiceResponse(invoice))
	}
	return responses, total, nil
}

func (s *InvoiceService) mutate(ctx context.Context, tenantID, invoiceID uuid.UUID, fn func(*finance.Invoice) error) (*InvoiceResponse, error) {
	var invoice *finance.Invoice
	err := s.scope.Execute(ctx, func(repos appsales.TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByID(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if err := fn(invoice); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, invoice)
	return ToInvoiceResponse(invoice), nil
}

// nextInvoiceNumber builds the year-and-shop-scoped number, e.g. FAC-2024-0001.
func (s *InvoiceService) nextInvoiceNumber(ctx context.Context, tenantID, shopID uuid.UUID) (string, error) {
	year := s.clock.Now().Format("2006")
	scope := fmt.Sprintf("invoice:%s", shopID)
	seq, err := s.sequences.Next(ctx, tenantID, scope, year)
	if err != nil {
		return "", fmt.Errorf("generate invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%s-%04d", InvoiceNumberPrefix, year, seq), nil
}

func (s *InvoiceService) publishDomainEvents(ctx context.Context, invoice *finance.Invoice) {
	if s.publisher == nil || invoice == nil {
		return
	}
	events := invoice.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	invoice.ClearDomainEvents()
}
