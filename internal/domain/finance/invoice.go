package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusValidated InvoiceStatus = "VALIDATED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusValidated, InvoiceStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the status machine allows the move.
// The only legal moves are DRAFT -> VALIDATED and VALIDATED -> PAID.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusValidated
	case InvoiceStatusValidated:
		return target == InvoiceStatusPaid
	}
	return false
}

// Invoice is the formal billing document issued for a sale or a purchase.
// The source is identified by type and ID; amounts are snapshots taken at
// issuance, so later changes to the source never touch an issued invoice.
type Invoice struct {
	shared.ShopAggregateRoot
	InvoiceNumber string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_invoices_number"`
	SourceType    ReferenceType        `gorm:"type:varchar(20);not null;index:idx_invoices_source"`
	SourceID      uuid.UUID            `gorm:"type:uuid;not null;index:idx_invoices_source"`
	PartyID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	SubtotalAmt   decimal.Decimal      `gorm:"column:subtotal;type:decimal(18,2);not null"`
	TaxAmt        decimal.Decimal      `gorm:"column:tax_total;type:decimal(18,2);not null"`
	TotalAmt      decimal.Decimal      `gorm:"column:total;type:decimal(18,2);not null"`
	PaidAmt       decimal.Decimal      `gorm:"column:paid_amount;type:decimal(18,2);not null"`
	Status        InvoiceStatus        `gorm:"type:varchar(20);not null;index"`
	IssuedAt      time.Time            `gorm:"not null"`
	ValidatedAt   *time.Time
	PaidAt        *time.Time
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice issues a draft invoice snapshotting the source document's
// amounts. The party is the client for a sale source and the supplier for a
// purchase source.
func NewInvoice(
	tenantID, shopID uuid.UUID,
	invoiceNumber string,
	sourceType ReferenceType,
	sourceID, partyID uuid.UUID,
	subtotal, taxTotal, total valueobject.Money,
	issuedAt time.Time,
) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice number cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown source type")
	}
	if sourceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Source ID cannot be empty")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Party ID cannot be empty")
	}
	if subtotal.Currency() != total.Currency() || taxTotal.Currency() != total.Currency() {
		return nil, shared.ErrCurrencyMismatch
	}
	if total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invoice total cannot be negative")
	}

	invoice := &Invoice{
		ShopAggregateRoot: shared.NewShopAggregateRoot(tenantID, shopID),
		InvoiceNumber:     invoiceNumber,
		SourceType:        sourceType,
		SourceID:          sourceID,
		PartyID:           partyID,
		Currency:          total.Currency(),
		SubtotalAmt:       subtotal.Amount(),
		TaxAmt:            taxTotal.Amount(),
		TotalAmt:          total.Amount(),
		PaidAmt:           decimal.Zero,
		Status:            InvoiceStatusDraft,
		IssuedAt:          issuedAt,
	}
	invoice.AddDomainEvent(NewInvoiceIssuedEvent(invoice))
	return invoice, nil
}

// Validate finalizes the draft. Only a draft invoice can be validated.
func (i *Invoice) Validate(now time.Time) error {
	if err := i.transition(InvoiceStatusValidated); err != nil {
		return err
	}
	i.ValidatedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoiceValidatedEvent(i))
	return nil
}

// MarkPaid records full payment. Only a validated invoice can be paid;
// marking a draft paid fails without passing through validation first.
func (i *Invoice) MarkPaid(now time.Time) error {
	if err := i.transition(InvoiceStatusPaid); err != nil {
		return err
	}
	i.PaidAmt = i.TotalAmt
	i.PaidAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePaidEvent(i))
	return nil
}

func (i *Invoice) transition(target InvoiceStatus) error {
	if !i.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorWithDetails(
			shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot transition invoice from %s to %s", i.Status, target),
			map[string]any{"from": i.Status.String(), "to": target.String()},
		)
	}
	i.Status = target
	return nil
}

// TotalMoney returns the invoice total as Money
func (i *Invoice) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.TotalAmt, i.Currency)
	return m
}

// SubtotalMoney returns the invoice subtotal as Money
func (i *Invoice) SubtotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.SubtotalAmt, i.Currency)
	return m
}

// TaxMoney returns the invoice tax total as Money
func (i *Invoice) TaxMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.TaxAmt, i.Currency)
	return m
}

// PaidMoney returns the amount paid against the invoice as Money
func (i *Invoice) PaidMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(i.PaidAmt, i.Currency)
	return m
}
