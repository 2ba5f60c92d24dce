package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	CDF Currency = "CDF" // Congolese Franc (default)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = CDF

// IsValid checks if the currency is one of the supported codes
func (c Currency) IsValid() bool {
	switch c {
	case CDF, USD, EUR:
		return true
	}
	return false
}

// MinorUnits returns the number of fractional digits the currency carries.
// Financial amounts are stored with exactly this precision.
func (c Currency) MinorUnits() int32 {
	return 2
}

// Money is a value object representing monetary amounts.
// It is immutable - all operations return new Money instances.
// Every arithmetic result is rounded half-up to the currency's minor-unit
// precision at the operation itself, never deferred to a final pass, so each
// intermediate value stays auditable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency.
// The amount is rounded to the currency's minor units.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, shared.NewDomainError(shared.CodeValidation, "Currency cannot be empty")
	}
	return Money{
		amount:   roundHalfUp(amount, currency.MinorUnits()),
		currency: currency,
	}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Invalid amount string: %s", amount))
	}
	return NewMoney(d, currency)
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// MustMoney creates Money and panics on error. Intended for constants and tests.
func MustMoney(amount string, currency Currency) Money {
	m, err := NewMoneyFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts.
// Returns CurrencyMismatch if currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   roundHalfUp(m.amount.Add(other.amount), m.currency.MinorUnits()),
		currency: m.currency,
	}, nil
}

// Subtract returns a new Money with the difference.
// Returns CurrencyMismatch if currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   roundHalfUp(m.amount.Sub(other.amount), m.currency.MinorUnits()),
		currency: m.currency,
	}, nil
}

// Multiply returns a new Money multiplied by the given factor, rounded to the
// currency's minor units.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{
		amount:   roundHalfUp(m.amount.Mul(factor), m.currency.MinorUnits()),
		currency: m.currency,
	}
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Compare returns -1, 0 or 1 when m is less than, equal to or greater than
// other. Returns CurrencyMismatch if currencies differ.
func (m Money) Compare(other Money) (int, error) {
	if err := m.requireSameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	cmp, err := m.Compare(other)
	return cmp < 0, err
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	cmp, err := m.Compare(other)
	return cmp > 0, err
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(m.currency.MinorUnits()), m.currency)
}

// StringFixed returns the amount as a string with the currency's minor units
func (m Money) StringFixed() string {
	return m.amount.StringFixed(m.currency.MinorUnits())
}

func (m Money) requireSameCurrency(other Money) error {
	if m.currency != other.currency {
		return shared.NewDomainErrorWithDetails(
			shared.CodeCurrencyMismatch,
			fmt.Sprintf("Cannot combine %s with %s", m.currency, other.currency),
			map[string]any{"left": string(m.currency), "right": string(other.currency)},
		)
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.String(),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler for request binding.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}

// Value implements driver.Valuer for database storage (amount only; the
// currency lives in its own column).
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}

// roundHalfUp rounds half away from zero to the given number of places.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}
