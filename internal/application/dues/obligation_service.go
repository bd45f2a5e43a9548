package dues

import (
	"bytes"
	"context"
	"sort"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObligationService answers obligation queries and applies single-obligation
// writes: direct status changes, standalone settlements, charge upserts and
// fines.
type ObligationService struct {
	cfg       ServiceConfig
	sweeper   *OverdueSweeper
	projector *NextPeriodProjector
}

// NewObligationService creates a new ObligationService
func NewObligationService(cfg ServiceConfig, sweeper *OverdueSweeper, projector *NextPeriodProjector) *ObligationService {
	cfg = cfg.withDefaults()
	if sweeper == nil {
		sweeper = NewOverdueSweeper(cfg)
	}
	if projector == nil {
		projector = NewNextPeriodProjector(cfg)
	}
	return &ObligationService{cfg: cfg, sweeper: sweeper, projector: projector}
}

// ListObligations sweeps the query's scope for overdue obligations, then
// returns every matching obligation of all kinds ordered by due date.
func (s *ObligationService) ListObligations(ctx context.Context, q ObligationQuery) (shared.Paginated[dues.Obligation], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "list")
	defer span.End()

	if err := q.validate(); err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[dues.Obligation]{}, err
	}
	s.sweeper.Sweep(ctx, q.scope())

	filter := q.filter()
	listers := []dues.ObligationLister{
		s.cfg.Repos.Charges(),
		s.cfg.Repos.Fines(),
		s.cfg.Repos.Agreements(),
	}
	var all []dues.Obligation
	for _, l := range listers {
		views, err := l.ListObligations(ctx, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return shared.Paginated[dues.Obligation]{}, err
		}
		all = append(all, views...)
	}
	sortObligations(all)

	total := len(all)
	from := min(filter.Offset(), total)
	to := min(from+filter.Limit(), total)
	page := filter.Page
	if page < 1 {
		page = 1
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, total)
	return shared.NewPaginated(all[from:to], int64(total), page, filter.Limit()), nil
}

// ListByUnit lists the obligations of one unit
func (s *ObligationService) ListByUnit(ctx context.Context, unitID uuid.UUID, q ObligationQuery) (shared.Paginated[dues.Obligation], error) {
	q.UnitID = &unitID
	q.ResidentID = nil
	return s.ListObligations(ctx, q)
}

// ListByResident lists the obligations of one resident across their units
func (s *ObligationService) ListByResident(ctx context.Context, residentID uuid.UUID, q ObligationQuery) (shared.Paginated[dues.Obligation], error) {
	q.ResidentID = &residentID
	q.UnitID = nil
	return s.ListObligations(ctx, q)
}

var kindRank = map[dues.ObligationKind]int{
	dues.ObligationKindPeriodicCharge: 0,
	dues.ObligationKindFine:           1,
	dues.ObligationKindInstallment:    2,
}

// sortObligations orders by due date, then kind and id so pages are stable.
func sortObligations(views []dues.Obligation) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if a.Ref.Kind != b.Ref.Kind {
			return kindRank[a.Ref.Kind] < kindRank[b.Ref.Kind]
		}
		return bytes.Compare(a.Ref.ID[:], b.Ref.ID[:]) < 0
	})
}

// SetStatus moves one obligation through the status machine and persists it.
// Overdue is only reachable from pending once the due date has passed, and
// processing needs a linked transaction that is still open. Settling a
// periodic charge projects its next month.
func (s *ObligationService) SetStatus(ctx context.Context, in SetStatusInput) (*dues.Obligation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "set_status")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrObligation, in.Ref.String())

	if in.Status == dues.ObligationStatusProcessing && in.TransactionID == nil {
		err := shared.InvalidArgument("transaction_id is required to move an obligation to processing")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var (
		view    dues.Obligation
		settled *SettledCharge
	)
	err := s.cfg.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		tx, err := findTransaction(ctx, repos, in.TransactionID)
		if err != nil {
			return err
		}
		if in.Status == dues.ObligationStatusProcessing && tx.Status.IsTerminal() {
			return shared.InvalidTransition("transaction %s is %s and cannot hold obligations", tx.ID, tx.Status)
		}
		rec, err := loadObligation(ctx, repos, in.Ref)
		if err != nil {
			return err
		}
		wasSettled := rec.state.Status == dues.ObligationStatusSettled
		if in.Status == dues.ObligationStatusOverdue {
			if !rec.state.MarkOverdue(rec.dueDate, s.cfg.Now()) {
				return shared.InvalidTransition("obligation is %s and due %s; only pending obligations past their due date become overdue",
					rec.state.Status, rec.dueDate.In(s.cfg.Location).Format(time.DateOnly))
			}
		} else if err := rec.state.TransitionTo(in.Status, in.SettledAt, in.TransactionID); err != nil {
			return err
		}
		if err := rec.save(ctx); err != nil {
			return err
		}
		if rec.charge != nil && in.Status == dues.ObligationStatusSettled && !wasSettled {
			settled = &SettledCharge{UnitID: rec.charge.UnitID, Period: rec.charge.Period()}
		}
		view = rec.view()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if settled != nil {
		s.cfg.Metrics.RecordSettled(ctx, in.Ref.Kind.String(), 1)
		s.projector.Project(ctx, []SettledCharge{*settled})
	}
	return &view, nil
}

// RecordStandaloneSettlement settles an obligation paid outside a reviewed
// transaction. The amount must match the obligation. A settled obligation
// keeps its first settlement date. Periodic charges get their next month
// projected.
func (s *ObligationService) RecordStandaloneSettlement(ctx context.Context, in StandaloneSettlementInput) (*dues.Obligation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "obligation", "record_standalone_settlement")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrObligation, in.Ref.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
	)

	if err := in.Ref.Validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !in.Amount.IsPositive() {
		err := shared.InvalidArgument("settlement amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}
	settledAt := s.cfg.Now()
	if in.SettledAt != nil {
		settledAt = *in.SettledAt
	}

	var (
		view    dues.Obligation
		settled *SettledCharge
	)
	err := s.cfg.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := requireTransaction(ctx, repos, in.TransactionID); err != nil {
			return err
		}
		rec, err := loadObligation(ctx, repos, in.Ref)
		if err != nil {
			return err
		}
		if !valueobject.NewMoney(in.Amount).Equals(valueobject.NewMoney(rec.amount)) {
			return shared.InvalidArgument("settlement amount %s does not match obligation amount %s",
				valueobject.NewMoney(in.Amount), valueobject.NewMoney(rec.amount))
		}
		if err := rec.state.TransitionTo(dues.ObligationStatusSettled, &settledAt, in.TransactionID); err != nil {
			return err
		}
		if err := rec.save(ctx); err != nil {
			return err
		}
		if rec.charge != nil {
			settled = &SettledCharge{UnitID: rec.charge.UnitID, Period: rec.charge.Period()}
		}
		view = rec.view()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.cfg.Metrics.RecordSettled(ctx, in.Ref.Kind.String(), 1)
	s.cfg.Logger.Info("Standalone settlement recorded",
		zap.String("obligation", in.Ref.String()),
		zap.String("amount", in.Amount.String()))
	if settled != nil {
		s.projector.Project(ctx, []SettledCharge{*settled})
	}
	return &view, nil
}

// EnsureCharge upserts the charge of a unit for one period. Repeated calls
// return the stored charge with Created=false.
func (s *ObligationService) EnsureCharge(ctx context.Context, in EnsureChargeInput) (*EnsureChargeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "charge", "ensure")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrUnitID, in.UnitID.String())

	if in.UnitID == uuid.Nil {
		err := shared.InvalidArgument("unit is required")
		telemetry.RecordError(span, err)
		return nil, err
	}
	if _, err := valueobject.NewPeriod(in.Period.Month, in.Period.Year); err != nil {
		err = shared.InvalidArgument("invalid billing period: %v", err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		err := shared.InvalidArgument("charge amount must be positive")
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result EnsureChargeResult
	err := s.cfg.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		result, err = ensurePeriodicCharge(ctx, repos, in.UnitID, in.Period, in.Amount, s.cfg.Location)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if result.Created {
		s.cfg.Metrics.RecordProjected(ctx, 1)
	}
	return &result, nil
}

// IssueFine issues a fine against the unit the resident is currently billed
// for. A zero due date means due today.
func (s *ObligationService) IssueFine(ctx context.Context, in IssueFineInput) (*dues.Fine, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "fine", "issue")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrResidentID, in.ResidentID.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
	)

	if in.ResidentID == uuid.Nil {
		err := shared.InvalidArgument("resident is required")
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := s.cfg.Now().In(s.cfg.Location)
	due := in.DueDate
	if due.IsZero() {
		due = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	}

	var fine *dues.Fine
	err := s.cfg.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Residents().FindByID(ctx, in.ResidentID); err != nil {
			return err
		}
		unitID, err := currentUnit(ctx, repos, in.ResidentID, now)
		if err != nil {
			return err
		}
		fine, err = dues.NewFine(in.ResidentID, unitID, in.Reason, valueobject.NewMoney(in.Amount), due)
		if err != nil {
			return err
		}
		return repos.Fines().Create(ctx, fine)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.cfg.Logger.Info("Fine issued",
		zap.String("fine_id", fine.ID.String()),
		zap.String("resident_id", fine.ResidentID.String()),
		zap.String("unit_id", fine.UnitID.String()),
		zap.String("amount", fine.Amount.String()))
	return fine, nil
}

// GetTransaction returns one transaction
func (s *ObligationService) GetTransaction(ctx context.Context, id uuid.UUID) (*dues.Transaction, error) {
	return s.cfg.Repos.Transactions().FindByID(ctx, id)
}

// ListTransactions returns a page of transactions
func (s *ObligationService) ListTransactions(ctx context.Context, in ListTransactionsInput) (shared.Paginated[dues.Transaction], error) {
	if in.Status != "" && !in.Status.IsValid() {
		return shared.Paginated[dues.Transaction]{}, shared.InvalidArgument("unknown transaction status %q", in.Status)
	}
	filter := dues.TransactionFilter{
		Filter: shared.Filter{
			Page:     in.Page,
			PageSize: in.PageSize,
			OrderBy:  in.OrderBy,
			OrderDir: in.OrderDir,
		},
		ResidentID: in.ResidentID,
		Status:     in.Status,
	}
	items, total, err := s.cfg.Repos.Transactions().List(ctx, filter)
	if err != nil {
		return shared.Paginated[dues.Transaction]{}, err
	}
	page := in.Page
	if page < 1 {
		page = 1
	}
	return shared.NewPaginated(items, total, page, filter.Limit()), nil
}

// GetAgreement returns an agreement with its lines
func (s *ObligationService) GetAgreement(ctx context.Context, id uuid.UUID) (*dues.Agreement, error) {
	return s.cfg.Repos.Agreements().FindByID(ctx, id)
}

// requireTransaction checks that an optional transaction link points at a
// stored transaction.
func requireTransaction(ctx context.Context, repos TransactionalRepositories, id *uuid.UUID) error {
	_, err := findTransaction(ctx, repos, id)
	return err
}

// findTransaction loads an optional transaction link. A nil id gives a nil
// transaction.
func findTransaction(ctx context.Context, repos TransactionalRepositories, id *uuid.UUID) (*dues.Transaction, error) {
	if id == nil {
		return nil, nil
	}
	return repos.Transactions().FindByID(ctx, *id)
}
