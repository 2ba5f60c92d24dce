package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
)

func TestNewQuantity(t *testing.T) {
	t.Run("creates non-negative quantity", func(t *testing.T) {
		q, err := NewQuantity(decimal.NewFromFloat(2.5))
		require.NoError(t, err)
		assert.Equal(t, "2.5", q.String())
	})

	t.Run("rejects negative value", func(t *testing.T) {
		_, err := NewQuantity(decimal.NewFromInt(-1))
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
	})

	t.Run("rejects negative int", func(t *testing.T) {
		_, err := NewQuantityFromInt(-3)
		assert.Error(t, err)
	})

	t.Run("rejects malformed string", func(t *testing.T) {
		_, err := NewQuantityFromString("two")
		assert.Error(t, err)
	})
}

func TestQuantity_Subtract(t *testing.T) {
	t.Run("subtracts smaller value", func(t *testing.T) {
		a := MustQuantity("5")
		b := MustQuantity("2")
		result, err := a.Subtract(b)
		require.NoError(t, err)
		assert.Equal(t, "3", result.String())
	})

	t.Run("subtracting to zero yields zero", func(t *testing.T) {
		a := MustQuantity("2")
		result, err := a.Subtract(a)
		require.NoError(t, err)
		assert.True(t, result.IsZero())
	})

	t.Run("fails when result would be negative", func(t *testing.T) {
		a := MustQuantity("1")
		b := MustQuantity("2")
		_, err := a.Subtract(b)
		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientQuantity, shared.ErrorCode(err))
	})
}

func TestQuantity_Add(t *testing.T) {
	a := MustQuantity("1.5")
	b := MustQuantity("2.5")
	assert.Equal(t, "4", a.Add(b).String())
	// operands untouched
	assert.Equal(t, "1.5", a.String())
}

func TestQuantity_RequireWhole(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"integer", "3", false},
		{"integer with fraction digits", "3.00", false},
		{"zero", "0", false},
		{"fractional", "2.5", true},
		{"tiny fraction", "1.001", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MustQuantity(tt.value).RequireWhole()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, shared.CodeFractionalQuantity, shared.ErrorCode(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuantity_Comparisons(t *testing.T) {
	a := MustQuantity("2")
	b := MustQuantity("3")

	assert.True(t, a.LessThan(b))
	assert.Equal(t, -1, a.Compare(b))
	assert.True(t, a.Equals(MustQuantity("2.0")))
	assert.True(t, a.Min(b).Equals(a))
	assert.True(t, b.Min(a).Equals(a))
}

func TestQuantity_Scan(t *testing.T) {
	var q Quantity
	require.NoError(t, q.Scan("7.25"))
	assert.Equal(t, "7.25", q.String())

	require.NoError(t, q.Scan(nil))
	assert.True(t, q.IsZero())

	require.NoError(t, q.Scan(int64(4)))
	assert.Equal(t, "4", q.String())
}
