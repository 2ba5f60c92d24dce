package sales

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/inventory"
	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "DRAFT"
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCancelled SaleStatus = "CANCELLED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusDraft, SaleStatusCompleted, SaleStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SaleStatus
func (s SaleStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SaleStatus) CanTransitionTo(target SaleStatus) bool {
	switch s {
	case SaleStatusDraft:
		return target == SaleStatusCompleted || target == SaleStatusCancelled
	case SaleStatusCompleted:
		return target == SaleStatusCancelled
	case SaleStatusCancelled:
		return false
	}
	return false
}

// PaymentType identifies how a sale was paid
type PaymentType string

const (
	PaymentTypeCash     PaymentType = "CASH"
	PaymentTypeMobile   PaymentType = "MOBILE_MONEY"
	PaymentTypeCard     PaymentType = "CARD"
	PaymentTypeOnCredit PaymentType = "ON_CREDIT"
)

// IsValid checks if the payment type is valid
func (p PaymentType) IsValid() bool {
	switch p {
	case PaymentTypeCash, PaymentTypeMobile, PaymentTypeCard, PaymentTypeOnCredit:
		return true
	}
	return false
}

// LotAllocations records which lots a sale line was fulfilled from, stored as
// JSONB so cancellation can restock the exact lots that were consumed.
type LotAllocations []inventory.LotAllocation

// Value implements driver.Valuer for JSONB storage
func (a LotAllocations) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB retrieval
func (a *LotAllocations) Scan(value any) error {
	if value == nil {
		*a = LotAllocations{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LotAllocations: unsupported type")
	}

	if len(bytes) == 0 {
		*a = LotAllocations{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// SaleLine represents one line of a sale. Product name and unit price are
// snapshots taken at sale time and never recomputed from the live catalog,
// so later catalog edits cannot rewrite history.
type SaleLine struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey"`
	SaleID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductName  string               `gorm:"type:varchar(200);not null"`
	Quantity     valueobject.Quantity `gorm:"type:decimal(18,4);not null"`
	UnitPrice    decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	TaxRate      decimal.Decimal      `gorm:"type:decimal(8,4);not null"` // percent, e.g. 16 for 16%
	Discount     decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	LineSubtotal decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	LineTax      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	LineTotal    decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Allocations  LotAllocations       `gorm:"type:jsonb"`
	CreatedAt    time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleLine) TableName() string {
	return "sale_lines"
}

// NewSaleLine builds a sale line, computing the rounded per-line amounts:
// subtotal = unitPrice x quantity, tax on the discounted base, and
// total = subtotal - discount + tax. Each step rounds to the currency's
// minor units so the per-line figures stay auditable on their own.
func NewSaleLine(productID uuid.UUID, productName string, quantity valueobject.Quantity, unitPrice valueobject.Money, taxRate decimal.Decimal, discount valueobject.Money) (*SaleLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Product name cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, lineValidationError(productID, "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, lineValidationError(productID, "Unit price cannot be negative")
	}
	if taxRate.IsNegative() {
		return nil, lineValidationError(productID, "Tax rate cannot be negative")
	}
	if discount.IsNegative() {
		return nil, lineValidationError(productID, "Discount cannot be negative")
	}
	if discount.Currency() != unitPrice.Currency() {
		return nil, shared.ErrCurrencyMismatch
	}

	subtotal := unitPrice.Multiply(quantity.Amount())
	discounted, err := subtotal.Subtract(discount)
	if err != nil {
		return nil, err
	}
	if discounted.IsNegative() {
		return nil, lineValidationError(productID, "Discount exceeds the line subtotal")
	}
	tax := discounted.Multiply(taxRate.Div(decimal.NewFromInt(100)))
	total, err := discounted.Add(tax)
	if err != nil {
		return nil, err
	}

	return &SaleLine{
		ID:           uuid.New(),
		ProductID:    productID,
		ProductName:  productName,
		Quantity:     quantity,
		UnitPrice:    unitPrice.Amount(),
		TaxRate:      taxRate,
		Discount:     discount.Amount(),
		LineSubtotal: subtotal.Amount(),
		LineTax:      tax.Amount(),
		LineTotal:    total.Amount(),
		Allocations:  LotAllocations{},
		CreatedAt:    time.Now(),
	}, nil
}

func lineValidationError(productID uuid.UUID, message string) error {
	return shared.NewDomainErrorWithDetails(shared.CodeValidation, message, map[string]any{
		"product_id": productID.String(),
	})
}

// SetAllocations records the lots this line was fulfilled from.
func (l *SaleLine) SetAllocations(allocations []inventory.LotAllocation) {
	l.Allocations = allocations
}

// Sale represents one transaction: line items, computed monetary totals and
// the payment received. It is the aggregate root owning its SaleLines.
type Sale struct {
	shared.ShopAggregateRoot
	SaleNumber     string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_sales_number"`
	CustomerID     *uuid.UUID           `gorm:"type:uuid;index"`
	SellerID       uuid.UUID            `gorm:"type:uuid;not null"`
	Status         SaleStatus           `gorm:"type:varchar(20);not null;index"`
	Lines          []SaleLine           `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null"`
	Subtotal       decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	TaxAmount      decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	DiscountAmount decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Total          decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	PaidAmount     decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	PaymentType    PaymentType          `gorm:"type:varchar(20);not null"`
	SoldAt         *time.Time           `gorm:"index"`
	CancelledAt    *time.Time
	CancelReason   string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a draft sale ready to receive lines.
func NewSale(tenantID, shopID uuid.UUID, saleNumber string, sellerID uuid.UUID, customerID *uuid.UUID, currency valueobject.Currency) (*Sale, error) {
	if saleNumber == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Sale number cannot be empty")
	}
	if sellerID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Seller ID cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Currency cannot be empty")
	}

	return &Sale{
		ShopAggregateRoot: shared.NewShopAggregateRoot(tenantID, shopID),
		SaleNumber:        saleNumber,
		CustomerID:        customerID,
		SellerID:          sellerID,
		Status:            SaleStatusDraft,
		Lines:             make([]SaleLine, 0),
		Currency:          currency,
		Subtotal:          decimal.Zero,
		TaxAmount:         decimal.Zero,
		DiscountAmount:    decimal.Zero,
		Total:             decimal.Zero,
		PaidAmount:        decimal.Zero,
	}, nil
}

// AddLine appends a line to a draft sale and recomputes the totals.
// Fails with MixedCurrencyLines if the line was priced in another currency
// than the sale's.
func (s *Sale) AddLine(line *SaleLine, lineCurrency valueobject.Currency) error {
	if s.Status != SaleStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidTransition, "Lines can only be added to a draft sale")
	}
	if lineCurrency != s.Currency {
		return shared.NewDomainErrorWithDetails(
			shared.CodeMixedCurrencyLines,
			fmt.Sprintf("Line currency %s differs from sale currency %s", lineCurrency, s.Currency),
			map[string]any{"product_id": line.ProductID.String(), "line_currency": string(lineCurrency), "sale_currency": string(s.Currency)},
		)
	}

	line.SaleID = s.ID
	s.Lines = append(s.Lines, *line)
	s.recomputeTotals()
	return nil
}

// recomputeTotals sums the already-rounded line amounts.
func (s *Sale) recomputeTotals() {
	subtotal, tax, discount, total := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range s.Lines {
		subtotal = subtotal.Add(line.LineSubtotal)
		tax = tax.Add(line.LineTax)
		discount = discount.Add(line.Discount)
		total = total.Add(line.LineTotal)
	}
	s.Subtotal = subtotal
	s.TaxAmount = tax
	s.DiscountAmount = discount
	s.Total = total
}

// Complete finalizes the sale with the payment received. Underpayment is
// legal; the settlement layer turns the gap into a Debt.
func (s *Sale) Complete(paidAmount valueobject.Money, paymentType PaymentType, soldAt time.Time) error {
	if !s.Status.CanTransitionTo(SaleStatusCompleted) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot complete a %s sale", s.Status))
	}
	if len(s.Lines) == 0 {
		return shared.NewDomainError(shared.CodeValidation, "Sale must have at least one line")
	}
	if paidAmount.Currency() != s.Currency {
		return shared.ErrCurrencyMismatch
	}
	if paidAmount.IsNegative() {
		return shared.NewDomainError(shared.CodeValidation, "Paid amount cannot be negative")
	}
	if !paymentType.IsValid() {
		return shared.NewDomainError(shared.CodeValidation, "Unknown payment type")
	}

	s.Status = SaleStatusCompleted
	s.PaidAmount = paidAmount.Amount()
	s.PaymentType = paymentType
	s.SoldAt = &soldAt
	s.UpdatedAt = soldAt
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCompletedEvent(s))
	return nil
}

// Cancel voids a completed or draft sale.
func (s *Sale) Cancel(reason string, now time.Time) error {
	if !s.Status.CanTransitionTo(SaleStatusCancelled) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Cannot cancel a %s sale", s.Status))
	}
	if reason == "" {
		return shared.NewDomainError(shared.CodeValidation, "Cancel reason is required")
	}

	s.Status = SaleStatusCancelled
	s.CancelledAt = &now
	s.CancelReason = reason
	s.UpdatedAt = now
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCancelledEvent(s, reason))
	return nil
}

// TotalMoney returns the sale total as Money
func (s *Sale) TotalMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.Total, s.Currency)
	return m
}

// PaidMoney returns the paid amount as Money
func (s *Sale) PaidMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(s.PaidAmount, s.Currency)
	return m
}

// OutstandingMoney returns the unpaid remainder, zero when the sale was paid
// in full or overpaid.
func (s *Sale) OutstandingMoney() valueobject.Money {
	outstanding := s.Total.Sub(s.PaidAmount)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	m, _ := valueobject.NewMoney(outstanding, s.Currency)
	return m
}

// IsUnderpaid reports whether the payment received is short of the total.
func (s *Sale) IsUnderpaid() bool {
	return s.PaidAmount.LessThan(s.Total)
}
