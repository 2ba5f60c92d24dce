package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/finance"
)

// RecordDebtPaymentCommand applies one payment to a debt
type RecordDebtPaymentCommand struct {
	TenantID      uuid.UUID
	DebtID        uuid.UUID
	RecordedBy    uuid.UUID
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required"`
	Reference     string          `json:"reference"`
}

// DebtListFilter represents filter options for debt queries
type DebtListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SettlementResponse is one payment event in a debt's history
type SettlementResponse struct {
	ID            uuid.UUID       `json:"id"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paid_at"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
	RecordedBy    uuid.UUID       `json:"recorded_by"`
}

// DebtResponse represents a debt in API responses
type DebtResponse struct {
	ID            uuid.UUID            `json:"id"`
	ShopID        uuid.UUID            `json:"shop_id"`
	Type          string               `json:"type"`
	PartyID       uuid.UUID            `json:"party_id"`
	Currency      string               `json:"currency"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	Balance       decimal.Decimal      `json:"balance"`
	Status        string               `json:"status"`
	Overdue       bool                 `json:"overdue"`
	ReferenceType string               `json:"reference_type"`
	ReferenceID   uuid.UUID            `json:"reference_id"`
	DueDate       *time.Time           `json:"due_date,omitempty"`
	SettledAt     *time.Time           `json:"settled_at,omitempty"`
	Settlements   []SettlementResponse `json:"settlements"`
	CreatedAt     time.Time            `json:"created_at"`
}

// ToDebtResponse converts a debt aggregate to its response DTO. Overdue is
// derived against the given time, never stored.
func ToDebtResponse(debt *finance.Debt, now time.Time) *DebtResponse {
	settlements := make([]SettlementResponse, 0, len(debt.Settlements))
	for _, s := range debt.Settlements {
		settlements = append(settlements, SettlementResponse{
			ID:            s.ID,
			Kind:          string(s.Kind),
			Amount:        s.Amount,
			PaidAt:        s.PaidAt,
			PaymentMethod: s.PaymentMethod,
			Reference:     s.Reference,
			RecordedBy:    s.RecordedBy,
		})
	}

	return &DebtResponse{
		ID:            debt.ID,
		ShopID:        debt.ShopID,
		Type:          string(debt.Type),
		PartyID:       debt.PartyID,
		Currency:      string(debt.Currency),
		TotalAmount:   debt.TotalAmount,
		PaidAmount:    debt.PaidAmount,
		Balance:       debt.Balance(),
		Status:        debt.Status.String(),
		Overdue:       debt.IsOverdue(now),
		ReferenceType: string(debt.ReferenceType),
		ReferenceID:   debt.ReferenceID,
		DueDate:       debt.DueDate,
		SettledAt:     debt.SettledAt,
		Settlements:   settlements,
		CreatedAt:     debt.CreatedAt,
	}
}

// IssueInvoiceCommand issues a draft invoice for a source document, either a
// completed sale or a supplier purchase.
type IssueInvoiceCommand struct {
	TenantID   uuid.UUID
	SourceType finance.ReferenceType
	SourceID   uuid.UUID
	// Purchase sources have no stored document to snapshot amounts from, so
	// the caller supplies the billing details. Ignored for sale sources.
	Purchase *PurchaseInvoiceDetails
}

// PurchaseInvoiceDetails carries the billing details of a supplier purchase
type PurchaseInvoiceDetails struct {
	ShopID     uuid.UUID       `json:"shop_id" binding:"required"`
	SupplierID uuid.UUID       `json:"supplier_id" binding:"required"`
	Currency   string          `json:"currency" binding:"required"`
	Subtotal   decimal.Decimal `json:"subtotal" binding:"required"`
	TaxTotal   decimal.Decimal `json:"tax_total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	ShopID        uuid.UUID       `json:"shop_id"`
	SourceType    string          `json:"source_type"`
	SourceID      uuid.UUID       `json:"source_id"`
	PartyID       uuid.UUID       `json:"party_id"`
	Currency      string          `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        string          `json:"status"`
	IssuedAt      time.Time       `json:"issued_at"`
	ValidatedAt   *time.Time      `json:"validated_at,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

// ToInvoiceResponse converts an invoice aggregate to its response DTO
func ToInvoiceResponse(invoice *finance.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		ShopID:        invoice.ShopID,
		SourceType:    string(invoice.SourceType),
		SourceID:      invoice.SourceID,
		PartyID:       invoice.PartyID,
		Currency:      string(invoice.Currency),
		Subtotal:      invoice.SubtotalAmt,
		TaxTotal:      invoice.TaxAmt,
		Total:         invoice.TotalAmt,
		PaidAmount:    invoice.PaidAmt,
		Status:        invoice.Status.String(),
		IssuedAt:      invoice.IssuedAt,
		ValidatedAt:   invoice.ValidatedAt,
		PaidAt:        invoice.PaidAt,
	}
}
