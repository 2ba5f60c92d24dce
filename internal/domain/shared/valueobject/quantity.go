package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailcore/backend/internal/domain/shared"
)

// Quantity is a value object representing non-negative stock amounts.
// It supports fractional values for products sold by weight/volume.
// It is immutable - all operations return new Quantity instances.
type Quantity struct {
	value decimal.Decimal
}

// NewQuantity creates a new Quantity with the specified value
func NewQuantity(value decimal.Decimal) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, shared.NewDomainError(shared.CodeValidation, "Quantity cannot be negative")
	}
	return Quantity{value: value}, nil
}

// NewQuantityFromString creates Quantity from a string representation
func NewQuantityFromString(value string) (Quantity, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Quantity{}, shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Invalid quantity string: %s", value))
	}
	return NewQuantity(d)
}

// NewQuantityFromInt creates Quantity from an int64 value
func NewQuantityFromInt(value int64) (Quantity, error) {
	if value < 0 {
		return Quantity{}, shared.NewDomainError(shared.CodeValidation, "Quantity cannot be negative")
	}
	return Quantity{value: decimal.NewFromInt(value)}, nil
}

// MustQuantity creates a Quantity and panics on error. Intended for tests.
func MustQuantity(value string) Quantity {
	q, err := NewQuantityFromString(value)
	if err != nil {
		panic(err)
	}
	return q
}

// ZeroQuantity returns a zero quantity
func ZeroQuantity() Quantity {
	return Quantity{value: decimal.Zero}
}

// Amount returns the decimal value
func (q Quantity) Amount() decimal.Decimal {
	return q.value
}

// IsZero returns true if the quantity is zero
func (q Quantity) IsZero() bool {
	return q.value.IsZero()
}

// IsPositive returns true if the quantity is positive
func (q Quantity) IsPositive() bool {
	return q.value.IsPositive()
}

// IsWhole returns true if the quantity has no fractional part
func (q Quantity) IsWhole() bool {
	return q.value.Equal(q.value.Truncate(0))
}

// RequireWhole fails with FractionalQuantityNotAllowed unless the quantity is
// an integer. Products not flagged divisible only accept whole quantities.
func (q Quantity) RequireWhole() error {
	if !q.IsWhole() {
		return shared.NewDomainErrorWithDetails(
			shared.CodeFractionalQuantity,
			fmt.Sprintf("Quantity %s must be a whole number", q.value.String()),
			map[string]any{"quantity": q.value.String()},
		)
	}
	return nil
}

// Add returns a new Quantity with the sum of both values
func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{value: q.value.Add(other.value)}
}

// Subtract returns a new Quantity with the difference.
// Fails with InsufficientQuantity if the result would be negative.
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	result := q.value.Sub(other.value)
	if result.IsNegative() {
		return Quantity{}, shared.NewDomainErrorWithDetails(
			shared.CodeInsufficientQuantity,
			fmt.Sprintf("Cannot subtract %s from %s", other.value.String(), q.value.String()),
			map[string]any{"available": q.value.String(), "requested": other.value.String()},
		)
	}
	return Quantity{value: result}, nil
}

// Min returns the smaller of q and other
func (q Quantity) Min(other Quantity) Quantity {
	if q.value.LessThan(other.value) {
		return q
	}
	return other
}

// Compare returns -1, 0 or 1 when q is less than, equal to or greater than other
func (q Quantity) Compare(other Quantity) int {
	return q.value.Cmp(other.value)
}

// LessThan returns true if q is strictly smaller than other
func (q Quantity) LessThan(other Quantity) bool {
	return q.value.LessThan(other.value)
}

// Equals returns true if both quantities are equal
func (q Quantity) Equals(other Quantity) bool {
	return q.value.Equal(other.value)
}

// String returns a string representation of the quantity
func (q Quantity) String() string {
	return q.value.String()
}

// MarshalJSON implements json.Marshaler, encoding the value as a string to
// avoid float precision loss.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.value.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	q.value = d
	return nil
}

// Value implements driver.Valuer for database storage
func (q Quantity) Value() (driver.Value, error) {
	return q.value.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (q *Quantity) Scan(value any) error {
	if value == nil {
		q.value = decimal.Zero
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	case int64:
		q.value = decimal.NewFromInt(v)
		return nil
	case float64:
		q.value = decimal.NewFromFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Quantity", value)
	}

	d, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	q.value = d
	return nil
}
