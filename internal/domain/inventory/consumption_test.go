package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailcore/backend/internal/domain/shared"
	"github.com/retailcore/backend/internal/domain/shared/valueobject"
)

func makeLot(t *testing.T, productID uuid.UUID, expiry *time.Time, quantity string, createdAt time.Time) *Lot {
	t.Helper()
	lot, err := NewLot(uuid.New(), uuid.New(), productID, "B-"+quantity, expiry, valueobject.MustQuantity(quantity))
	require.NoError(t, err)
	lot.CreatedAt = createdAt
	return lot
}

func TestPlanConsumption_FIFOOrder(t *testing.T) {
	productID := uuid.New()
	now := date(2023, 12, 1)
	created := date(2023, 11, 1)

	// Lots with expirations [2024-01, 2024-03, no-expiry]
	early := makeLot(t, productID, ptr(date(2024, 1, 1)), "10", created)
	later := makeLot(t, productID, ptr(date(2024, 3, 1)), "10", created)
	eternal := makeLot(t, productID, nil, "10", created)
	lots := []*Lot{eternal, later, early}

	t.Run("small consumption depletes only the earliest lot", func(t *testing.T) {
		plan, err := PlanConsumption(lots, productID, valueobject.MustQuantity("4"), now)
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, early.ID, plan.Allocations[0].LotID)
		assert.Equal(t, "4", plan.Allocations[0].Quantity.String())
	})

	t.Run("spills over in expiration order", func(t *testing.T) {
		plan, err := PlanConsumption(lots, productID, valueobject.MustQuantity("25"), now)
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 3)
		assert.Equal(t, early.ID, plan.Allocations[0].LotID)
		assert.Equal(t, later.ID, plan.Allocations[1].LotID)
		assert.Equal(t, eternal.ID, plan.Allocations[2].LotID)
		assert.Equal(t, "5", plan.Allocations[2].Quantity.String())
	})

	t.Run("never-expiring lots sort last", func(t *testing.T) {
		plan, err := PlanConsumption([]*Lot{eternal, later}, productID, valueobject.MustQuantity("5"), now)
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, later.ID, plan.Allocations[0].LotID)
	})
}

func TestPlanConsumption_TieBreakByCreation(t *testing.T) {
	productID := uuid.New()
	now := date(2023, 12, 1)
	expiry := ptr(date(2024, 6, 1))

	older := makeLot(t, productID, expiry, "5", date(2023, 10, 1))
	newer := makeLot(t, productID, expiry, "5", date(2023, 11, 1))

	plan, err := PlanConsumption([]*Lot{newer, older}, productID, valueobject.MustQuantity("3"), now)
	require.NoError(t, err)
	require.Len(t, plan.Allocations, 1)
	assert.Equal(t, older.ID, plan.Allocations[0].LotID)
}

func TestPlanConsumption_ExpiredLotsExcluded(t *testing.T) {
	productID := uuid.New()
	now := date(2024, 3, 15)
	created := date(2024, 1, 1)

	expired := makeLot(t, productID, ptr(date(2024, 2, 1)), "10", created)
	boundary := makeLot(t, productID, ptr(date(2024, 3, 15)), "10", created)
	good := makeLot(t, productID, ptr(date(2024, 6, 1)), "10", created)
	lots := []*Lot{expired, boundary, good}

	t.Run("expired and boundary-day lots are never selected", func(t *testing.T) {
		plan, err := PlanConsumption(lots, productID, valueobject.MustQuantity("8"), now)
		require.NoError(t, err)
		require.Len(t, plan.Allocations, 1)
		assert.Equal(t, good.ID, plan.Allocations[0].LotID)
	})

	t.Run("expired stock does not count toward availability", func(t *testing.T) {
		_, err := PlanConsumption(lots, productID, valueobject.MustQuantity("11"), now)
		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
	})
}

func TestPlanConsumption_InsufficientStock(t *testing.T) {
	productID := uuid.New()
	now := date(2023, 12, 1)
	lots := []*Lot{
		makeLot(t, productID, ptr(date(2024, 1, 1)), "3", now),
		makeLot(t, productID, nil, "2", now),
	}

	_, err := PlanConsumption(lots, productID, valueobject.MustQuantity("6"), now)
	require.Error(t, err)

	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, shared.CodeInsufficientStock, de.Code)
	assert.Equal(t, "6", de.Details["requested"])
	assert.Equal(t, "5", de.Details["available"])
	assert.Equal(t, "1", de.Details["shortfall"])

	// no lot was touched
	assert.Equal(t, "3", lots[0].RemainingQuantity.String())
	assert.Equal(t, "2", lots[1].RemainingQuantity.String())
}

func TestPlanConsumption_RejectsNonPositive(t *testing.T) {
	productID := uuid.New()
	_, err := PlanConsumption(nil, productID, valueobject.ZeroQuantity(), time.Now())
	require.Error(t, err)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
}

func TestConsumptionPlan_Apply(t *testing.T) {
	productID := uuid.New()
	now := date(2023, 12, 1)
	created := date(2023, 11, 1)

	t.Run("deducts and deactivates depleted lots", func(t *testing.T) {
		// one lot of 1 expiring first, one lot of 5 after
		lotA := makeLot(t, productID, ptr(date(2024, 1, 1)), "1", created)
		lotB := makeLot(t, productID, ptr(date(2024, 6, 1)), "5", created)
		lots := []*Lot{lotA, lotB}

		plan, err := PlanConsumption(lots, productID, valueobject.MustQuantity("2"), now)
		require.NoError(t, err)
		require.NoError(t, plan.Apply(lots, now))

		assert.True(t, lotA.RemainingQuantity.IsZero())
		assert.False(t, lotA.IsActive)
		assert.Equal(t, "4", lotB.RemainingQuantity.String())
		assert.True(t, lotB.IsActive)
		assert.Equal(t, "2", plan.TotalQuantity().String())
	})

	t.Run("fails when a planned lot is missing", func(t *testing.T) {
		lotA := makeLot(t, productID, nil, "5", created)
		plan, err := PlanConsumption([]*Lot{lotA}, productID, valueobject.MustQuantity("2"), now)
		require.NoError(t, err)

		err = plan.Apply([]*Lot{}, now)
		require.Error(t, err)
		assert.Equal(t, shared.CodeNotFound, shared.ErrorCode(err))
	})
}

func TestAvailableQuantity(t *testing.T) {
	productID := uuid.New()
	other := uuid.New()
	now := date(2024, 3, 15)

	lots := []*Lot{
		makeLot(t, productID, ptr(date(2024, 6, 1)), "5", now),
		makeLot(t, productID, ptr(date(2024, 1, 1)), "7", now), // expired
		makeLot(t, other, nil, "9", now),                       // different product
	}

	assert.Equal(t, "5", AvailableQuantity(lots, productID, now).String())
}
