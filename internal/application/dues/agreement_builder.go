package dues

import (
	"context"
	"errors"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/residency"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgreementBuilder consolidates a resident's unpaid or missing monthly
// charges into a payment agreement with installments.
type AgreementBuilder struct {
	cfg ServiceConfig
}

// NewAgreementBuilder creates a new AgreementBuilder
func NewAgreementBuilder(cfg ServiceConfig) *AgreementBuilder {
	return &AgreementBuilder{cfg: cfg.withDefaults()}
}

func (in BuildAgreementInput) validate() error {
	if in.ResidentID == uuid.Nil {
		return shared.InvalidArgument("resident is required")
	}
	if in.PeriodsToConsolidate <= 0 {
		return shared.InvalidArgument("periods to consolidate must be positive")
	}
	if in.InstallmentCount <= 0 {
		return shared.InvalidArgument("installment count must be positive")
	}
	if in.SurchargePercent != nil && in.SurchargePercent.IsNegative() {
		return shared.InvalidArgument("surcharge percent cannot be negative")
	}
	if len(in.Schedule) > 0 {
		if len(in.Schedule) != in.InstallmentCount {
			return shared.InvalidArgument("schedule has %d lines but installment count is %d",
				len(in.Schedule), in.InstallmentCount)
		}
		for i, line := range in.Schedule {
			if !line.Amount.IsPositive() {
				return shared.InvalidArgument("scheduled installment %d amount must be positive", i+1)
			}
			if line.DueDate.IsZero() {
				return shared.InvalidArgument("scheduled installment %d due date is required", i+1)
			}
		}
	} else if in.StartDate.IsZero() {
		return shared.InvalidArgument("start date is required")
	}
	return nil
}

// Build creates the agreement. Selected charges are cancelled, missing periods
// are recorded as cancelled charges, and the agreement with its lines is
// inserted, all in one transaction.
func (b *AgreementBuilder) Build(ctx context.Context, in BuildAgreementInput) (*AgreementResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "agreement", "build")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrResidentID, in.ResidentID.String(),
		telemetry.SpanAttrCount, in.PeriodsToConsolidate,
	)

	if err := in.validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	now := b.cfg.Now().In(b.cfg.Location)
	resident, err := b.cfg.Repos.Residents().FindByID(ctx, in.ResidentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	unitID, err := currentUnit(ctx, b.cfg.Repos, in.ResidentID, now)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	unit, err := b.cfg.Repos.Units().FindByID(ctx, unitID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	schedule, err := b.cfg.Repos.FeeSchedules().FindCurrent(ctx, unit.BuildingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrUnitID, unitID.String())

	expected := dues.ExpectedPeriods(resident.RegisteredAt.In(b.cfg.Location), now)
	// An unset surcharge uses the fee schedule's; an explicit zero waives it.
	surcharge := in.SurchargePercent
	if surcharge == nil {
		pct := schedule.SurchargePercent
		surcharge = &pct
	}

	// The writes are not abandoned half way once validation has passed.
	txCtx := context.WithoutCancel(ctx)

	var result *AgreementResult
	err = b.cfg.Scope.Execute(txCtx, func(repos TransactionalRepositories) error {
		charges, err := repos.Charges().ListByUnit(txCtx, unitID)
		if err != nil {
			return err
		}
		selection := dues.SelectForConsolidation(charges, expected, in.PeriodsToConsolidate)
		if selection.Count() == 0 {
			return shared.InvalidArgument("no periods available to consolidate")
		}

		fold := consolidation{
			repos:    repos,
			unitID:   unitID,
			schedule: schedule,
			loc:      b.cfg.Location,
			base:     valueobject.Zero(),
		}
		for i := range selection.Existing {
			if err := fold.existing(txCtx, &selection.Existing[i]); err != nil {
				return err
			}
		}
		for _, period := range selection.Missing {
			if err := fold.missing(txCtx, period); err != nil {
				return err
			}
		}
		if fold.summary.CancelledExisting+fold.summary.CreatedCancelled == 0 {
			return shared.InvalidArgument("no periods available to consolidate")
		}

		lines, surchargeAmount, total, err := dues.PriceAgreement(dues.PricingInput{
			Base:             fold.base,
			SurchargePercent: surcharge,
			Explicit:         in.Schedule,
			InstallmentCount: in.InstallmentCount,
			StartDate:        in.StartDate,
		})
		if err != nil {
			return err
		}
		agreement, err := dues.NewAgreement(in.ResidentID, startDateOf(in, lines), lines, in.Notes)
		if err != nil {
			return err
		}
		if err := repos.Agreements().Create(txCtx, agreement); err != nil {
			return err
		}

		summary := fold.summary
		summary.Base = fold.base
		summary.Surcharge = surchargeAmount
		summary.Total = total
		result = &AgreementResult{
			Agreement:        agreement,
			InstallmentCount: len(agreement.Lines),
			Summary:          summary,
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		b.cfg.Logger.Warn("Failed to build agreement",
			zap.String("resident_id", in.ResidentID.String()),
			zap.Error(err))
		return nil, err
	}

	a := result.Agreement
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAgreementID, a.ID.String(),
		telemetry.SpanAttrAmount, a.TotalAmount.String(),
	)
	b.cfg.Logger.Info("Agreement created",
		zap.String("agreement_id", a.ID.String()),
		zap.String("resident_id", a.ResidentID.String()),
		zap.String("base", result.Summary.Base.String()),
		zap.String("total", a.TotalAmount.String()),
		zap.Int("installments", result.InstallmentCount),
		zap.Int("cancelled_existing", result.Summary.CancelledExisting),
		zap.Int("created_cancelled", result.Summary.CreatedCancelled))
	b.cfg.Metrics.RecordAgreement(ctx, a.TotalAmount, result.InstallmentCount)
	b.cfg.publish(ctx, dues.NewAgreementCreatedEvent(a))
	return result, nil
}

// consolidation accumulates the charges folded into one agreement.
type consolidation struct {
	repos    TransactionalRepositories
	unitID   uuid.UUID
	schedule *residency.FeeSchedule
	loc      *time.Location
	base     valueobject.Money
	summary  dues.ConsolidationSummary
}

func (c *consolidation) existing(ctx context.Context, charge *dues.PeriodicCharge) error {
	if err := charge.FoldIntoAgreement(); err != nil {
		return err
	}
	if err := c.repos.Charges().Save(ctx, charge); err != nil {
		return err
	}
	c.base = c.base.Add(charge.AmountMoney())
	c.summary.CancelledExisting++
	return nil
}

// missing re-checks the period inside the transaction, since another request
// may have created its charge after the selection was read.
func (c *consolidation) missing(ctx context.Context, period valueobject.Period) error {
	stored, err := c.repos.Charges().FindByUnitAndPeriod(ctx, c.unitID, period)
	switch {
	case err == nil:
		// Settled periods are skipped. A charge already in a transaction
		// cannot be folded either.
		if !stored.Status.IsPayable() {
			return nil
		}
		return c.existing(ctx, stored)
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}

	charge, err := dues.NewCancelledPeriodicCharge(c.unitID, period, c.schedule.AmountMoney(), c.dueDate(period))
	if err != nil {
		return err
	}
	if err := c.repos.Charges().Create(ctx, charge); err != nil {
		return err
	}
	c.base = c.base.Add(charge.AmountMoney())
	c.summary.CreatedCancelled++
	return nil
}

func (c *consolidation) dueDate(period valueobject.Period) time.Time {
	return c.schedule.DueDate(period, c.loc)
}

// startDateOf is the requested start, or the first due date of an explicit
// schedule.
func startDateOf(in BuildAgreementInput, lines []dues.ScheduledInstallment) time.Time {
	if !in.StartDate.IsZero() || len(lines) == 0 {
		return in.StartDate
	}
	return lines[0].DueDate
}

// currentUnit resolves the unit a resident is billed for.
func currentUnit(ctx context.Context, repos TransactionalRepositories, residentID uuid.UUID, now time.Time) (uuid.UUID, error) {
	assignments, err := repos.Assignments().FindByResident(ctx, residentID)
	if err != nil {
		return uuid.Nil, err
	}
	current := residency.ResolveCurrentAssignment(assignments, now)
	if current == nil {
		return uuid.Nil, shared.NewDomainError(shared.CodePropertyNotFound,
			"no active property for resident "+residentID.String())
	}
	return current.UnitID, nil
}
