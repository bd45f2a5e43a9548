package dues

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// OverdueSweeper promotes pending obligations whose due date has passed.
type OverdueSweeper struct {
	cfg ServiceConfig
}

// NewOverdueSweeper creates a new OverdueSweeper
func NewOverdueSweeper(cfg ServiceConfig) *OverdueSweeper {
	return &OverdueSweeper{cfg: cfg.withDefaults()}
}

// Sweep runs one conditional update per obligation table and returns the
// number of promoted rows. Failures are logged and never returned, so callers
// can sweep before reading without failing the read.
func (s *OverdueSweeper) Sweep(ctx context.Context, scope dues.SweepScope) int64 {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "sweep")
	defer span.End()

	if scope.ResidentID != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrResidentID, scope.ResidentID.String())
	}
	if scope.UnitID != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrUnitID, scope.UnitID.String())
	}

	now := s.cfg.Now()
	tables := []struct {
		kind    dues.ObligationKind
		cascade dues.ObligationCascade
	}{
		{dues.ObligationKindPeriodicCharge, s.cfg.Repos.Charges()},
		{dues.ObligationKindFine, s.cfg.Repos.Fines()},
		{dues.ObligationKindInstallment, s.cfg.Repos.Agreements()},
	}

	var total int64
	telemetry.WithOperationLabel(ctx, "obligation.sweep", func(ctx context.Context) {
		for _, t := range tables {
			n, err := t.cascade.MarkOverdue(ctx, scope, now)
			if err != nil {
				telemetry.RecordError(span, err)
				s.cfg.Logger.Warn("Overdue sweep failed",
					zap.String("kind", t.kind.String()),
					zap.Error(err))
				continue
			}
			s.cfg.Metrics.RecordSwept(ctx, t.kind.String(), n)
			total += n
		}
	})

	telemetry.SetAttribute(span, telemetry.SpanAttrCount, total)
	if total > 0 {
		s.cfg.Logger.Debug("Obligations marked overdue", zap.Int64("count", total))
		s.cfg.publish(ctx, dues.NewObligationsSweptEvent(scope, total))
	}
	return total
}
