// Package dues holds the application services of the dues engine: obligation
// queries, the overdue sweep, agreement building, transaction reconciliation
// and next-period projection. Each service opens its own unit of work through
// a TransactionScope and publishes domain events only after commit.
package dues

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ServiceConfig carries the collaborators shared by the dues services.
type ServiceConfig struct {
	// Scope opens transactions for writes
	Scope TransactionScope
	// Repos serves reads and best-effort writes outside a transaction
	Repos TransactionalRepositories
	// EventPublisher receives domain events after commit. Optional.
	EventPublisher shared.EventPublisher
	// Metrics is optional; a nil value records nothing
	Metrics *telemetry.DuesMetrics
	Logger  *zap.Logger
	// Location is the timezone due dates are computed in. Defaults to UTC.
	Location *time.Location
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// publish hands events to the publisher. The write has already committed, so
// a publishing failure is logged and not returned.
func (c ServiceConfig) publish(ctx context.Context, events ...shared.DomainEvent) {
	if c.EventPublisher == nil || len(events) == 0 {
		return
	}
	if err := c.EventPublisher.Publish(ctx, events...); err != nil {
		c.Logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}

// collectEvents drains the pending events of aggregates.
func collectEvents(aggregates ...shared.AggregateRoot) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		if a == nil {
			continue
		}
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	return events
}
