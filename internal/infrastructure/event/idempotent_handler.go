package event

import (
	"context"
	"sync/atomic"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"go.uber.org/zap"
)

// eventKeyPrefix keeps event ids apart from gateway callback ids when both
// share one idempotency store.
const eventKeyPrefix = "event:"

// IdempotencyStats is a snapshot of an IdempotentHandler's counters
type IdempotencyStats struct {
	Processed int64 `json:"processed"`
	Duplicate int64 `json:"duplicate"`
	Failed    int64 `json:"failed"`
}

// IdempotentHandler wraps an EventHandler so each event id is handled once
// within the TTL, even if the event is published again.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	config  shared.IdempotencyConfig
	logger  *zap.Logger

	processed atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewIdempotentHandler creates a new idempotent handler wrapper
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, config shared.IdempotencyConfig, logger *zap.Logger) *IdempotentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdempotentHandler{handler: handler, store: store, config: config, logger: logger}
}

// EventTypes returns the wrapped handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

// Handle runs the wrapped handler unless the event id was already marked.
// A store failure lets the event through: a repeated notification is
// preferred over a lost one.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled || h.store == nil {
		return h.handler.Handle(ctx, event)
	}

	key := eventKeyPrefix + event.EventID().String()
	isNew, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		h.logger.Warn("idempotency check failed, handling anyway",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
	case !isNew:
		h.duplicate.Add(1)
		h.logger.Debug("duplicate event skipped",
			zap.String("event_id", event.EventID().String()),
			zap.String("event_type", event.EventType()),
		)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		h.failed.Add(1)
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns the current counters
func (h *IdempotentHandler) Stats() IdempotencyStats {
	return IdempotencyStats{
		Processed: h.processed.Load(),
		Duplicate: h.duplicate.Load(),
		Failed:    h.failed.Load(),
	}
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
