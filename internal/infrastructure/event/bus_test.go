package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/retailcore/backend/internal/domain/shared"
)

type saleEvent struct {
	shared.BaseDomainEvent
}

func newSaleEvent(eventType string) *saleEvent {
	return &saleEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, uuid.New(), "Sale", uuid.New()),
	}
}

type recordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	seen       []shared.DomainEvent
	err        error
	panics     bool
}

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, evt)
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

func startedBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	return bus
}

func TestInMemoryEventBusPublish(t *testing.T) {
	t.Run("delivers to matching handler", func(t *testing.T) {
		bus := startedBus(t)
		handler := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
		bus.Subscribe(handler)

		evt := newSaleEvent("sales.sale.completed")
		require.NoError(t, bus.Publish(context.Background(), evt))

		require.Equal(t, 1, handler.count())
		assert.Equal(t, evt, handler.seen[0])
	})

	t.Run("skips non-matching handler", func(t *testing.T) {
		bus := startedBus(t)
		handler := &recordingHandler{eventTypes: []string{"sales.sale.cancelled"}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
		assert.Equal(t, 0, handler.count())
	})

	t.Run("wildcard handler receives every event", func(t *testing.T) {
		bus := startedBus(t)
		handler := &recordingHandler{}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(),
			newSaleEvent("sales.sale.completed"),
			newSaleEvent("finance.debt.created"),
		))
		assert.Equal(t, 2, handler.count())
	})

	t.Run("explicit subscription types override the handler's own", func(t *testing.T) {
		bus := startedBus(t)
		handler := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
		bus.Subscribe(handler, "finance.debt.created")

		require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
		assert.Equal(t, 0, handler.count())

		require.NoError(t, bus.Publish(context.Background(), newSaleEvent("finance.debt.created")))
		assert.Equal(t, 1, handler.count())
	})

	t.Run("handler error does not stop other handlers", func(t *testing.T) {
		bus := startedBus(t)
		failing := &recordingHandler{eventTypes: []string{"sales.sale.completed"}, err: errors.New("boom")}
		healthy := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
		bus.Subscribe(failing)
		bus.Subscribe(healthy)

		require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
		assert.Equal(t, 1, failing.count())
		assert.Equal(t, 1, healthy.count())
	})

	t.Run("handler panic is contained", func(t *testing.T) {
		bus := startedBus(t)
		panicking := &recordingHandler{eventTypes: []string{"sales.sale.completed"}, panics: true}
		healthy := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		require.NotPanics(t, func() {
			require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
		})
		assert.Equal(t, 1, healthy.count())
	})

	t.Run("events before start are dropped", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		handler := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
		bus.Subscribe(handler)

		require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
		assert.Equal(t, 0, handler.count())
	})

	t.Run("events after stop are dropped", func(t *testing.T) {
		bus := startedBus(t)
		handler := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
		bus.Subscribe(handler)
		require.NoError(t, bus.Stop(context.Background()))

		require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
		assert.Equal(t, 0, handler.count())
	})
}

func TestInMemoryEventBusUnsubscribe(t *testing.T) {
	bus := startedBus(t)
	typed := &recordingHandler{eventTypes: []string{"sales.sale.completed"}}
	wildcard := &recordingHandler{}
	bus.Subscribe(typed)
	bus.Subscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
	assert.Equal(t, 1, typed.count())
	assert.Equal(t, 1, wildcard.count())

	bus.Unsubscribe(typed)
	bus.Unsubscribe(wildcard)

	require.NoError(t, bus.Publish(context.Background(), newSaleEvent("sales.sale.completed")))
	assert.Equal(t, 1, typed.count())
	assert.Equal(t, 1, wildcard.count())
}
