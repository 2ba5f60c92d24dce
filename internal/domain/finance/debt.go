package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

// ErrDebtHasPayments vetoes cancelling a sale whose debt already received
// payments. The payments would have to be reversed first.
var ErrDebtHasPayments = shared.NewDomainError(
	shared.CodeInvalidTransition,
	"Sale cannot be cancelled: its debt has recorded payments",
)

// DebtStatus represents the stored status of a debt
type DebtStatus string

const (
	DebtStatusOpen    DebtStatus = "OPEN"    // no payment received yet
	DebtStatusPartial DebtStatus = "PARTIAL" // 0 < paid < total
	DebtStatusSettled DebtStatus = "SETTLED" // balance reached zero
)

// IsValid checks if the status is a valid DebtStatus
func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtStatusOpen, DebtStatusPartial, DebtStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of DebtStatus
func (s DebtStatus) String() string {
	return string(s)
}

// DebtType distinguishes money owed by a client from money owed to a supplier
type DebtType string

const (
	DebtTypeClient   DebtType = "CLIENT"
	DebtTypeSupplier DebtType = "SUPPLIER"
)

// IsValid checks if the debt type is valid
func (t DebtType) IsValid() bool {
	return t == DebtTypeClient || t == DebtTypeSupplier
}

// ReferenceType identifies the document a debt originated from
type ReferenceType string

const (
	ReferenceTypeSale     ReferenceType = "SALE"
	ReferenceTypePurchase ReferenceType = "PURCHASE"
)

// IsValid checks if the reference type is valid
func (t ReferenceType) IsValid() bool {
	return t == ReferenceTypeSale || t == ReferenceTypePurchase
}

// SettlementKind distinguishes the down payment carried over from the source
// document from payments recorded against the debt afterwards.
type SettlementKind string

const (
	SettlementKindInitial SettlementKind = "INITIAL"
	SettlementKindPayment SettlementKind = "PAYMENT"
)

// DebtSettlement is one recorded payment event against a debt. The history is
// append-only; the sum of settlement amounts always equals the debt's paid
// amount.
type DebtSettlement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	DebtID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind          SettlementKind  `gorm:"type:varchar(20);not null;default:PAYMENT"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAt        time.Time       `gorm:"not null"`
	PaymentMethod string          `gorm:"type:varchar(50)"`
	Reference     string          `gorm:"type:varchar(100)"`
	RecordedBy    uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// InitialPayment describes the amount already paid on the source document at
// the time the debt is created. It is recorded as the first settlement so the
// history sums to PaidAmount from the start.
type InitialPayment struct {
	Method     string
	Reference  string
	RecordedBy uuid.UUID
}

// TableName returns the table name for GORM
func (DebtSettlement) TableName() string {
	return "debt_settlements"
}

// Debt tracks an amount still owed after a partially paid transaction. It is
// the aggregate root owning its append-only settlement history.
type Debt struct {
	shared.ShopAggregateRoot
	Type          DebtType             `gorm:"type:varchar(20);not null;index"`
	PartyID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null"`
	TotalAmount   decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ReferenceType ReferenceType        `gorm:"type:varchar(20);not null;index:idx_debts_reference"`
	ReferenceID   uuid.UUID            `gorm:"type:uuid;not null;index:idx_debts_reference"`
	Status        DebtStatus           `gorm:"type:varchar(20);not null;index"`
	DueDate       *time.Time           `gorm:"type:date"`
	Settlements   []DebtSettlement     `gorm:"foreignKey:DebtID;constraint:OnDelete:CASCADE"`
	SettledAt     *time.Time
}

// TableName returns the table name for GORM
func (Debt) TableName() string {
	return "debts"
}

// NewDebt creates a debt for the unpaid remainder of a transaction. A
// positive initialPaid is entered into the settlement history as an INITIAL
// settlement, so initial must describe who recorded it and how it was paid.
func NewDebt(
	tenantID, shopID uuid.UUID,
	debtType DebtType,
	partyID uuid.UUID,
	total, initialPaid valueobject.Money,
	referenceType ReferenceType,
	referenceID uuid.UUID,
	dueDate *time.Time,
	initial *InitialPayment,
) (*Debt, error) {
	if !debtType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown debt type")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Party ID cannot be empty")
	}
	if !referenceType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown reference type")
	}
	if referenceID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Reference ID cannot be empty")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Debt total must be positive")
	}
	if initialPaid.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Paid amount cannot be negative")
	}
	if total.Currency() != initialPaid.Currency() {
		return nil, shared.ErrCurrencyMismatch
	}
	if initialPaid.Amount().GreaterThanOrEqual(total.Amount()) {
		return nil, shared.NewDomainError(shared.CodeValidation, "A fully paid transaction does not create a debt")
	}

	status := DebtStatusOpen
	if initialPaid.IsPositive() {
		status = DebtStatusPartial
		if initial == nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Initial payment details are required when paid is positive")
		}
		if initial.RecordedBy == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeValidation, "Recording user is required")
		}
	}

	debt := &Debt{
		ShopAggregateRoot: shared.NewShopAggregateRoot(tenantID, shopID),
		Type:              debtType,
		PartyID:           partyID,
		Currency:          total.Currency(),
		TotalAmount:       total.Amount(),
		PaidAmount:        initialPaid.Amount(),
		ReferenceType:     referenceType,
		ReferenceID:       referenceID,
		Status:            status,
		DueDate:           dueDate,
		Settlements:       make([]DebtSettlement, 0),
	}
	if initialPaid.IsPositive() {
		debt.Settlements = append(debt.Settlements, DebtSettlement{
			ID:            uuid.New(),
			DebtID:        debt.ID,
			Kind:          SettlementKindInitial,
			Amount:        initialPaid.Amount(),
			PaidAt:        debt.CreatedAt,
			PaymentMethod: initial.Method,
			Reference:     initial.Reference,
			RecordedBy:    initial.RecordedBy,
			CreatedAt:     debt.CreatedAt,
		})
	}
	debt.AddDomainEvent(NewDebtCreatedEvent(debt))
	return debt, nil
}

// Balance returns the remaining amount owed, never negative.
func (d *Debt) Balance() decimal.Decimal {
	balance := d.TotalAmount.Sub(d.PaidAmount)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// BalanceMoney returns the balance as Money
func (d *Debt) BalanceMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(d.Balance(), d.Currency)
	return m
}

// IsOverdue reports whether the debt carries a balance past its due date.
// Overdue is derived at read time; it is never stored and never blocks
// further payments.
func (d *Debt) IsOverdue(now time.Time) bool {
	if d.DueDate == nil || d.Status == DebtStatusSettled {
		return false
	}
	return shared.StartOfDay(now).After(*d.DueDate)
}

// RecordPayment appends a settlement to the history and moves the status
// forward. Fails with DebtAlreadySettled once the balance reached zero,
// CurrencyMismatch for a foreign-currency payment, and OverpaymentRejected
// when the payment would push paid past total.
func (d *Debt) RecordPayment(amount valueobject.Money, paidAt time.Time, paymentMethod, reference string, recordedBy uuid.UUID) (*DebtSettlement, error) {
	if d.Status == DebtStatusSettled {
		return nil, shared.ErrDebtAlreadySettled
	}
	if amount.Currency() != d.Currency {
		return nil, shared.NewDomainErrorWithDetails(
			shared.CodeCurrencyMismatch,
			fmt.Sprintf("Payment in %s against a %s debt", amount.Currency(), d.Currency),
			map[string]any{"debt_currency": string(d.Currency), "payment_currency": string(amount.Currency())},
		)
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Payment amount must be positive")
	}
	if recordedBy == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeValidation, "Recording user is required")
	}

	newPaid := d.PaidAmount.Add(amount.Amount())
	if newPaid.GreaterThan(d.TotalAmount) {
		return nil, shared.NewDomainErrorWithDetails(
			shared.CodeOverpaymentRejected,
			fmt.Sprintf("Payment %s exceeds the remaining balance %s", amount.StringFixed(), d.Balance().StringFixed(2)),
			map[string]any{"balance": d.Balance().String(), "payment": amount.Amount().String()},
		)
	}

	settlement := DebtSettlement{
		ID:            uuid.New(),
		DebtID:        d.ID,
		Kind:          SettlementKindPayment,
		Amount:        amount.Amount(),
		PaidAt:        paidAt,
		PaymentMethod: paymentMethod,
		Reference:     reference,
		RecordedBy:    recordedBy,
		CreatedAt:     paidAt,
	}
	d.Settlements = append(d.Settlements, settlement)
	d.PaidAmount = newPaid

	if d.Balance().IsZero() {
		d.Status = DebtStatusSettled
		d.SettledAt = &paidAt
		d.AddDomainEvent(NewDebtSettledEvent(d))
	} else {
		d.Status = DebtStatusPartial
		d.AddDomainEvent(NewDebtPaymentRecordedEvent(d, amount))
	}

	d.UpdatedAt = paidAt
	d.IncrementVersion()
	return &settlement, nil
}

// Close marks the debt settled. Guarded: it fails with NonZeroBalance unless
// the balance is exactly zero.
func (d *Debt) Close(now time.Time) error {
	if !d.Balance().IsZero() {
		return shared.NewDomainErrorWithDetails(
			shared.CodeNonZeroBalance,
			fmt.Sprintf("Cannot close debt with balance %s", d.Balance().StringFixed(2)),
			map[string]any{"balance": d.Balance().String()},
		)
	}
	if d.Status == DebtStatusSettled {
		return nil
	}
	d.Status = DebtStatusSettled
	d.SettledAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

// SettlementsTotal sums the settlement history. The value always equals
// PaidAmount, the carried-over initial payment included.
func (d *Debt) SettlementsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range d.Settlements {
		total = total.Add(s.Amount)
	}
	return total
}

// HasPayments reports whether any payment was applied, either on the source
// document or against the debt itself.
func (d *Debt) HasPayments() bool {
	return d.PaidAmount.IsPositive()
}

// HasRecordedPayments reports whether any payment was recorded against the
// debt after creation. The initial settlement carried over from the source
// document does not count.
func (d *Debt) HasRecordedPayments() bool {
	for _, s := range d.Settlements {
		if s.Kind == SettlementKindPayment {
			return true
		}
	}
	return false
}
