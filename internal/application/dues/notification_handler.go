package dues

import (
	"context"
	"fmt"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"go.uber.org/zap"
)

// NotificationHandler stands in for resident notification sinks. It writes
// one structured log line per dues event.
type NotificationHandler struct {
	logger *zap.Logger
}

// NewNotificationHandler creates a new handler for dues events
func NewNotificationHandler(logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *NotificationHandler) EventTypes() []string {
	return []string{
		dues.EventTypeTransactionSubmitted,
		dues.EventTypeTransactionApproved,
		dues.EventTypeTransactionRejected,
		dues.EventTypeAgreementCreated,
		dues.EventTypeAgreementCompleted,
		dues.EventTypeObligationsSwept,
	}
}

// Handle logs the event with the fields a notification would carry
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
	}

	switch e := event.(type) {
	case *dues.TransactionSubmittedEvent:
		fields = append(fields,
			zap.String("resident_id", e.ResidentID.String()),
			zap.String("amount", e.Amount.String()),
			zap.String("method", string(e.Method)),
			zap.String("status", string(e.Status)),
			zap.Int("obligations", len(e.Obligations)))
	case *dues.TransactionApprovedEvent:
		fields = append(fields,
			zap.String("resident_id", e.ResidentID.String()),
			zap.String("amount", e.Amount.String()),
			zap.Int64("settled", e.Settled))
	case *dues.TransactionRejectedEvent:
		fields = append(fields,
			zap.String("resident_id", e.ResidentID.String()),
			zap.Int64("released", e.Released))
	case *dues.AgreementCreatedEvent:
		fields = append(fields,
			zap.String("resident_id", e.ResidentID.String()),
			zap.String("total_amount", e.TotalAmount.String()),
			zap.Int("installments", e.InstallmentCount))
	case *dues.AgreementCompletedEvent:
		fields = append(fields, zap.String("resident_id", e.ResidentID.String()))
	case *dues.ObligationsSweptEvent:
		fields = append(fields, zap.Int64("promoted", e.Promoted))
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	h.logger.Info("dues notification", fields...)
	return nil
}

var _ shared.EventHandler = (*NotificationHandler)(nil)
