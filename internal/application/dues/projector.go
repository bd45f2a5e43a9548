package dues

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NextPeriodProjector opens the following month's charge once a unit's
// charge is settled.
type NextPeriodProjector struct {
	cfg ServiceConfig
}

// NewNextPeriodProjector creates a new NextPeriodProjector
func NewNextPeriodProjector(cfg ServiceConfig) *NextPeriodProjector {
	return &NextPeriodProjector{cfg: cfg.withDefaults()}
}

// Project ensures a charge exists for the month after the latest settled
// period of each unit. It is best effort: failures are logged, and the number
// of charges actually created is returned.
func (p *NextPeriodProjector) Project(ctx context.Context, settled []SettledCharge) int {
	if len(settled) == 0 {
		return 0
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "charge", "project_next_period")
	defer span.End()

	latest := make(map[uuid.UUID]valueobject.Period, len(settled))
	for _, s := range settled {
		if cur, ok := latest[s.UnitID]; !ok || s.Period.After(cur) {
			latest[s.UnitID] = s.Period
		}
	}
	units := make([]uuid.UUID, 0, len(latest))
	for id := range latest {
		units = append(units, id)
	}
	sort.Slice(units, func(i, j int) bool { return bytes.Compare(units[i][:], units[j][:]) < 0 })

	created := 0
	for _, unitID := range units {
		next := latest[unitID].Next()
		res, err := ensurePeriodicCharge(ctx, p.cfg.Repos, unitID, next, nil, p.cfg.Location)
		if err != nil {
			telemetry.RecordError(span, err)
			p.cfg.Logger.Warn("Failed to project next period charge",
				zap.String("unit_id", unitID.String()),
				zap.String("period", next.String()),
				zap.Error(err))
			continue
		}
		if res.Created {
			created++
			p.cfg.Logger.Info("Projected next period charge",
				zap.String("unit_id", unitID.String()),
				zap.String("period", next.String()),
				zap.String("amount", res.Charge.Amount.String()))
		}
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrCount, created)
	p.cfg.Metrics.RecordProjected(ctx, int64(created))
	return created
}

// ensurePeriodicCharge upserts the charge of a unit for one period. Without an
// explicit amount the fee schedule of the unit's building applies, and the due
// date always follows the schedule's grace day.
func ensurePeriodicCharge(
	ctx context.Context,
	repos TransactionalRepositories,
	unitID uuid.UUID,
	period valueobject.Period,
	amount *decimal.Decimal,
	loc *time.Location,
) (EnsureChargeResult, error) {
	unit, err := repos.Units().FindByID(ctx, unitID)
	if err != nil {
		return EnsureChargeResult{}, err
	}
	schedule, err := repos.FeeSchedules().FindCurrent(ctx, unit.BuildingID)
	if err != nil {
		return EnsureChargeResult{}, err
	}
	money := schedule.AmountMoney()
	if amount != nil {
		money = valueobject.NewMoney(*amount)
	}
	charge, err := dues.NewPeriodicCharge(unitID, period, money, schedule.DueDate(period, loc))
	if err != nil {
		return EnsureChargeResult{}, err
	}
	stored, created, err := repos.Charges().FindOrCreate(ctx, charge)
	if err != nil {
		return EnsureChargeResult{}, err
	}
	return EnsureChargeResult{Charge: stored, Created: created}, nil
}

// settledChargesOf lists the charges of a settlement for projection.
func settledChargesOf(charges []dues.PeriodicCharge) []SettledCharge {
	out := make([]SettledCharge, 0, len(charges))
	for _, c := range charges {
		if c.Status == dues.ObligationStatusCancelled {
			continue
		}
		out = append(out, SettledCharge{UnitID: c.UnitID, Period: c.Period()})
	}
	return out
}
