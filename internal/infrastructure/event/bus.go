// Package event delivers dues domain events (submitted, approved and rejected
// transactions, agreement lifecycle, overdue sweeps) to in-process handlers.
package event

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "dues-engine/event"

// InMemoryEventBus dispatches events synchronously to subscribed handlers.
// A failing or panicking handler is logged and does not stop the others;
// events are notifications and Publish never fails the caller.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	tracer   trace.Tracer
	running  atomic.Bool
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}

// Publish publishes events to all registered handlers synchronously
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		for _, handler := range b.registry.GetHandlers(event.EventType()) {
			if err := b.dispatch(ctx, handler, event); err != nil {
				b.logger.Error("handler failed to process event",
					zap.String("event_type", event.EventType()),
					zap.String("event_id", event.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// Subscribe registers a handler; without explicit types the handler's own
// EventTypes are used.
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, eventTypes ...string) {
	if len(eventTypes) == 0 {
		eventTypes = handler.EventTypes()
	}
	b.registry.Register(handler, eventTypes...)
	b.logger.Debug("handler subscribed", zap.Strings("event_types", eventTypes))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start marks the bus running
func (b *InMemoryEventBus) Start(context.Context) error {
	b.running.Store(true)
	b.logger.Info("event bus started")
	return nil
}

// Stop marks the bus stopped. Publishing is synchronous so nothing is in flight.
func (b *InMemoryEventBus) Stop(context.Context) error {
	b.running.Store(false)
	b.logger.Info("event bus stopped")
	return nil
}

// Running reports whether Start was called without a later Stop.
func (b *InMemoryEventBus) Running() bool {
	return b.running.Load()
}

func (b *InMemoryEventBus) dispatch(ctx context.Context, handler shared.EventHandler, event shared.DomainEvent) (err error) {
	ctx, span := b.tracer.Start(ctx, "event.dispatch "+event.EventType(),
		trace.WithAttributes(
			attribute.String("event.type", event.EventType()),
			attribute.String("event.id", event.EventID().String()),
			attribute.String("event.aggregate_id", event.AggregateID().String()),
		))
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return handler.Handle(ctx, event)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
