package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	mu     sync.Mutex
	types  []string
	seen   []string
	err    error
	panics bool
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	if h.panics {
		panic("boom")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seen = append(h.seen, event.EventType())
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.seen)
}

// mapStore is an IdempotencyStore without expiry.
type mapStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (s *mapStore) MarkProcessed(_ context.Context, id string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[id] {
		return false, nil
	}
	s.keys[id] = true
	return true, nil
}

func (s *mapStore) IsProcessed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[id], nil
}

func (s *mapStore) Close() error { return nil }

func sweptEvent() shared.DomainEvent {
	return dues.NewObligationsSweptEvent(dues.SweepScope{}, 3)
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	swept := &recordingHandler{types: []string{dues.EventTypeObligationsSwept}}
	other := &recordingHandler{types: []string{dues.EventTypeAgreementCreated}}
	all := &recordingHandler{}
	bus.Subscribe(swept)
	bus.Subscribe(other)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(t.Context(), sweptEvent()))

	assert.Equal(t, 1, swept.count())
	assert.Equal(t, 0, other.count())
	assert.Equal(t, 1, all.count())

	bus.Unsubscribe(swept)
	require.NoError(t, bus.Publish(t.Context(), sweptEvent()))
	assert.Equal(t, 1, swept.count())
	assert.Equal(t, 2, all.count())
}

func TestInMemoryEventBus_HandlerFailuresAreIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))
	types := []string{dues.EventTypeObligationsSwept}
	bus.Subscribe(&recordingHandler{types: types, panics: true})
	bus.Subscribe(&recordingHandler{types: types, err: errors.New("smtp down")})
	ok := &recordingHandler{types: types}
	bus.Subscribe(ok)

	require.NoError(t, bus.Publish(t.Context(), sweptEvent()))

	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 2, logs.FilterMessage("handler failed to process event").Len())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	require.NoError(t, bus.Start(t.Context()))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(t.Context()))
	assert.False(t, bus.Running())
}

func TestIdempotentHandler(t *testing.T) {
	t.Run("handles each event once", func(t *testing.T) {
		inner := &recordingHandler{types: []string{dues.EventTypeObligationsSwept}}
		h := NewIdempotentHandler(inner, &mapStore{}, shared.DefaultIdempotencyConfig(), nil)
		event := sweptEvent()

		require.NoError(t, h.Handle(t.Context(), event))
		require.NoError(t, h.Handle(t.Context(), event))
		require.NoError(t, h.Handle(t.Context(), sweptEvent()))

		assert.Equal(t, 2, inner.count())
		assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
		assert.Equal(t, inner.EventTypes(), h.EventTypes())
	})

	t.Run("store failure still handles the event", func(t *testing.T) {
		inner := &recordingHandler{}
		h := NewIdempotentHandler(inner, &mapStore{err: errors.New("redis gone")}, shared.DefaultIdempotencyConfig(), nil)

		require.NoError(t, h.Handle(t.Context(), sweptEvent()))
		assert.Equal(t, 1, inner.count())
	})

	t.Run("disabled passes through", func(t *testing.T) {
		inner := &recordingHandler{}
		store := &mapStore{}
		h := NewIdempotentHandler(inner, store, shared.IdempotencyConfig{}, nil)
		event := sweptEvent()

		require.NoError(t, h.Handle(t.Context(), event))
		require.NoError(t, h.Handle(t.Context(), event))
		assert.Equal(t, 2, inner.count())
		assert.Empty(t, store.keys)
	})

	t.Run("counts failures", func(t *testing.T) {
		inner := &recordingHandler{err: errors.New("nope")}
		h := NewIdempotentHandler(inner, &mapStore{}, shared.DefaultIdempotencyConfig(), nil)

		assert.Error(t, h.Handle(t.Context(), sweptEvent()))
		assert.Equal(t, int64(1), h.Stats().Failed)
	})
}
