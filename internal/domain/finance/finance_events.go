package finance

import (
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// DebtCreatedEvent is published when a partially paid transaction leaves a balance
type DebtCreatedEvent struct {
	shared.BaseDomainEvent
	DebtID        string `json:"debt_id"`
	PartyID       string `json:"party_id"`
	DebtType      string `json:"debt_type"`
	Currency      string `json:"currency"`
	TotalAmount   string `json:"total_amount"`
	PaidAmount    string `json:"paid_amount"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

// NewDebtCreatedEvent creates a new debt created event
func NewDebtCreatedEvent(debt *Debt) *DebtCreatedEvent {
	return &DebtCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("finance.debt.created", debt.ID, "Debt", debt.TenantID),
		DebtID:          debt.ID.String(),
		PartyID:         debt.PartyID.String(),
		DebtType:        string(debt.Type),
		Currency:        string(debt.Currency),
		TotalAmount:     debt.TotalAmount.String(),
		PaidAmount:      debt.PaidAmount.String(),
		ReferenceType:   string(debt.ReferenceType),
		ReferenceID:     debt.ReferenceID.String(),
	}
}

// DebtPaymentRecordedEvent is published when a payment is applied to a debt
type DebtPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	DebtID   string `json:"debt_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// NewDebtPaymentRecordedEvent creates a new debt payment recorded event
func NewDebtPaymentRecordedEvent(debt *Debt, amount valueobject.Money) *DebtPaymentRecordedEvent {
	return &DebtPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("finance.debt.payment_recorded", debt.ID, "Debt", debt.TenantID),
		DebtID:          debt.ID.String(),
		Amount:          amount.Amount().String(),
		Currency:        string(amount.Currency()),
		Balance:         debt.Balance().String(),
	}
}

// DebtSettledEvent is published when a debt's balance reaches zero
type DebtSettledEvent struct {
	shared.BaseDomainEvent
	DebtID      string `json:"debt_id"`
	PartyID     string `json:"party_id"`
	TotalAmount string `json:"total_amount"`
}

// NewDebtSettledEvent creates a new debt settled event
func NewDebtSettledEvent(debt *Debt) *DebtSettledEvent {
	return &DebtSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("finance.debt.settled", debt.ID, "Debt", debt.TenantID),
		DebtID:          debt.ID.String(),
		PartyID:         debt.PartyID.String(),
		TotalAmount:     debt.TotalAmount.String(),
	}
}

// InvoiceIssuedEvent is published when a draft invoice is created for a
// source document
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	SourceType    string `json:"source_type"`
	SourceID      string `json:"source_id"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
}

// NewInvoiceIssuedEvent creates a new invoice issued event
func NewInvoiceIssuedEvent(invoice *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("finance.invoice.issued", invoice.ID, "Invoice", invoice.TenantID),
		InvoiceID:       invoice.ID.String(),
		InvoiceNumber:   invoice.InvoiceNumber,
		SourceType:      string(invoice.SourceType),
		SourceID:        invoice.SourceID.String(),
		Total:           invoice.TotalAmt.String(),
		Currency:        string(invoice.Currency),
	}
}

// InvoiceValidatedEvent is published when a draft invoice is finalized
type InvoiceValidatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
}

// NewInvoiceValidatedEvent creates a new invoice validated event
func NewInvoiceValidatedEvent(invoice *Invoice) *InvoiceValidatedEvent {
	return &InvoiceValidatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("finance.invoice.validated", invoice.ID, "Invoice", invoice.TenantID),
		InvoiceID:       invoice.ID.String(),
		InvoiceNumber:   invoice.InvoiceNumber,
	}
}

// InvoicePaidEvent is published when a validated invoice is marked paid
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID     string `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	Total         string `json:"total"`
}

// NewInvoicePaidEvent creates a new invoice paid event
func NewInvoicePaidEvent(invoice *Invoice) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("finance.invoice.paid", invoice.ID, "Invoice", invoice.TenantID),
		InvoiceID:       invoice.ID.String(),
		InvoiceNumber:   invoice.InvoiceNumber,
		Total:           invoice.TotalAmt.String(),
	}
}
