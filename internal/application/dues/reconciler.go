package dues

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionReconciler records payment transactions and cascades their
// approval or rejection to every linked obligation.
type TransactionReconciler struct {
	cfg       ServiceConfig
	projector *NextPeriodProjector
}

// NewTransactionReconciler creates a new TransactionReconciler
func NewTransactionReconciler(cfg ServiceConfig, projector *NextPeriodProjector) *TransactionReconciler {
	cfg = cfg.withDefaults()
	if projector == nil {
		projector = NewNextPeriodProjector(cfg)
	}
	return &TransactionReconciler{cfg: cfg, projector: projector}
}

func (in CreateTransactionInput) validate() error {
	if in.ResidentID == uuid.Nil {
		return shared.InvalidArgument("resident is required")
	}
	if !in.Amount.IsPositive() {
		return shared.InvalidArgument("transaction amount must be positive")
	}
	if !in.Method.IsValid() {
		return shared.InvalidArgument("unknown payment method %q", in.Method)
	}
	if !in.Type.IsValid() {
		return shared.InvalidArgument("unknown transaction type %q", in.Type)
	}
	if len(in.Obligations) == 0 && in.Type != dues.TransactionTypeOther {
		return shared.InvalidArgument("at least one obligation is required")
	}
	seen := make(map[dues.ObligationRef]struct{}, len(in.Obligations))
	for _, ref := range in.Obligations {
		if err := ref.Validate(); err != nil {
			return err
		}
		if _, dup := seen[ref]; dup {
			return shared.InvalidArgument("obligation %s is listed twice", ref)
		}
		seen[ref] = struct{}{}
	}
	return nil
}

// Create records a transaction and moves its obligations into processing.
// Every obligation must belong to the resident and be pending or overdue.
func (r *TransactionReconciler) Create(ctx context.Context, in CreateTransactionInput) (*dues.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "create")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrResidentID, in.ResidentID.String(),
		telemetry.SpanAttrAmount, in.Amount.String(),
		telemetry.SpanAttrMethod, string(in.Method),
		telemetry.SpanAttrCount, len(in.Obligations),
	)

	if err := in.validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	paidAt := r.cfg.Now()
	if in.PaidAt != nil {
		paidAt = *in.PaidAt
	}
	tx, err := dues.NewTransaction(in.ResidentID, valueobject.NewMoney(in.Amount), in.Method, in.Type, paidAt)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	tx.SetReference(in.Reference)
	tx.Notes = dues.AppendNote("", in.Notes)
	tx.EvidenceKey = in.EvidenceKey

	err = r.cfg.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Residents().FindByID(ctx, in.ResidentID); err != nil {
			return err
		}
		units, err := residentUnits(ctx, repos, in.ResidentID)
		if err != nil {
			return err
		}
		records := make([]*obligationRecord, 0, len(in.Obligations))
		for _, ref := range in.Obligations {
			rec, err := loadObligation(ctx, repos, ref)
			if err != nil {
				return err
			}
			if !rec.belongsTo(in.ResidentID, units) {
				return shared.InvalidArgument("obligation %s does not belong to resident %s", ref, in.ResidentID)
			}
			records = append(records, rec)
		}
		if err := repos.Transactions().Create(ctx, tx); err != nil {
			return err
		}
		for _, rec := range records {
			if err := rec.state.LinkTransaction(tx.ID); err != nil {
				return shared.InvalidTransition("obligation %s is %s and cannot be paid", rec.ref, rec.state.Status)
			}
			if err := rec.save(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, tx.ID.String())
	r.cfg.Logger.Info("Transaction submitted",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("resident_id", tx.ResidentID.String()),
		zap.String("amount", tx.Amount.String()),
		zap.String("method", string(tx.Method)),
		zap.String("status", string(tx.Status)),
		zap.Int("obligations", len(in.Obligations)))
	r.cfg.Metrics.RecordTransaction(ctx, string(tx.Method), string(tx.Status))
	r.cfg.publish(ctx, dues.NewTransactionSubmittedEvent(tx, in.Obligations))
	return tx, nil
}

// MarkProcessing moves a pending transaction into review. Gateways call it when
// they accept a card payment.
func (r *TransactionReconciler) MarkProcessing(ctx context.Context, id uuid.UUID) (*dues.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "mark_processing")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, id.String())

	var tx *dues.Transaction
	err := r.cfg.Scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.Transactions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.MarkProcessing(); err != nil {
			return err
		}
		return repos.Transactions().SaveFrom(ctx, tx, dues.TransactionStatusPending)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	r.cfg.Metrics.RecordTransaction(ctx, string(tx.Method), string(tx.Status))
	return tx, nil
}

// settlement is what an approval changed, gathered for the post-commit work.
type settlement struct {
	tx        *dues.Transaction
	charges   []dues.PeriodicCharge
	completed []*dues.Agreement
	counts    map[dues.ObligationKind]int64
}

// Approve completes a processing transaction and settles every obligation
// linked to it. Agreements whose lines are then all settled are completed in
// the same transaction. The next month's charge is projected after commit.
func (r *TransactionReconciler) Approve(ctx context.Context, id uuid.UUID, notes string) (*dues.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "approve")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, id.String())

	txCtx := context.WithoutCancel(ctx)
	var s settlement
	err := r.cfg.Scope.Execute(txCtx, func(repos TransactionalRepositories) error {
		var err error
		s, err = r.approve(txCtx, repos, id, notes)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		r.cfg.Logger.Warn("Failed to approve transaction",
			zap.String("transaction_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	var settled int64
	for kind, n := range s.counts {
		r.cfg.Metrics.RecordSettled(ctx, kind.String(), n)
		settled += n
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, settled)
	r.cfg.Logger.Info("Transaction approved",
		zap.String("transaction_id", id.String()),
		zap.Int64("settled", settled),
		zap.Int("agreements_completed", len(s.completed)))
	r.cfg.Metrics.RecordTransaction(ctx, string(s.tx.Method), string(s.tx.Status))

	r.projector.Project(ctx, settledChargesOf(s.charges))

	events := collectEvents(s.tx)
	for _, e := range events {
		if approved, ok := e.(*dues.TransactionApprovedEvent); ok {
			approved.Settled = settled
		}
	}
	for _, a := range s.completed {
		events = append(events, collectEvents(a)...)
	}
	r.cfg.publish(ctx, events...)
	return s.tx, nil
}

func (r *TransactionReconciler) approve(ctx context.Context, repos TransactionalRepositories, id uuid.UUID, notes string) (settlement, error) {
	s := settlement{counts: make(map[dues.ObligationKind]int64, 3)}

	tx, err := repos.Transactions().FindByID(ctx, id)
	if err != nil {
		return s, err
	}
	if err := tx.Approve(notes); err != nil {
		return s, err
	}
	if err := repos.Transactions().SaveFrom(ctx, tx, dues.TransactionStatusProcessing); err != nil {
		return s, err
	}
	s.tx = tx

	// Read the links before they are settled; the projection and the
	// agreement check need them afterwards.
	charges, err := repos.Charges().FindByTransaction(ctx, id)
	if err != nil {
		return s, err
	}
	lines, err := repos.Agreements().FindLinesByTransaction(ctx, id)
	if err != nil {
		return s, err
	}

	now := r.cfg.Now()
	cascades := []struct {
		kind    dues.ObligationKind
		cascade dues.ObligationCascade
	}{
		{dues.ObligationKindFine, repos.Fines()},
		{dues.ObligationKindPeriodicCharge, repos.Charges()},
		{dues.ObligationKindInstallment, repos.Agreements()},
	}
	for _, c := range cascades {
		n, err := c.cascade.SettleByTransaction(ctx, id, now)
		if err != nil {
			return s, err
		}
		s.counts[c.kind] = n
	}
	s.charges = charges

	seen := make(map[uuid.UUID]struct{})
	for _, line := range lines {
		if _, ok := seen[line.AgreementID]; ok {
			continue
		}
		seen[line.AgreementID] = struct{}{}
		agreement, err := repos.Agreements().FindByID(ctx, line.AgreementID)
		if err != nil {
			return s, err
		}
		if agreement.Status != dues.AgreementStatusActive || !agreement.AllSettled() {
			continue
		}
		if err := agreement.Complete(); err != nil {
			return s, err
		}
		if err := repos.Agreements().Save(ctx, agreement); err != nil {
			return s, err
		}
		s.completed = append(s.completed, agreement)
	}
	return s, nil
}

// Reject rejects a processing transaction. Only obligations still processing
// under it return to pending; settled or cancelled ones are left alone.
func (r *TransactionReconciler) Reject(ctx context.Context, id uuid.UUID, notes string) (*dues.Transaction, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transaction", "reject")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrTransactionID, id.String())

	txCtx := context.WithoutCancel(ctx)
	var tx *dues.Transaction
	counts := make(map[dues.ObligationKind]int64, 3)
	err := r.cfg.Scope.Execute(txCtx, func(repos TransactionalRepositories) error {
		var err error
		tx, err = repos.Transactions().FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := tx.Reject(notes); err != nil {
			return err
		}
		if err := repos.Transactions().SaveFrom(txCtx, tx, dues.TransactionStatusProcessing); err != nil {
			return err
		}
		cascades := []struct {
			kind    dues.ObligationKind
			cascade dues.ObligationCascade
		}{
			{dues.ObligationKindFine, repos.Fines()},
			{dues.ObligationKindPeriodicCharge, repos.Charges()},
			{dues.ObligationKindInstallment, repos.Agreements()},
		}
		for _, c := range cascades {
			n, err := c.cascade.ReleaseByTransaction(txCtx, id)
			if err != nil {
				return err
			}
			counts[c.kind] = n
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		r.cfg.Logger.Warn("Failed to reject transaction",
			zap.String("transaction_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	var released int64
	for kind, n := range counts {
		r.cfg.Metrics.RecordReleased(ctx, kind.String(), n)
		released += n
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCount, released)
	r.cfg.Logger.Info("Transaction rejected",
		zap.String("transaction_id", id.String()),
		zap.Int64("released", released))
	r.cfg.Metrics.RecordTransaction(ctx, string(tx.Method), string(tx.Status))

	events := collectEvents(tx)
	for _, e := range events {
		if rejected, ok := e.(*dues.TransactionRejectedEvent); ok {
			rejected.Released = released
		}
	}
	r.cfg.publish(ctx, events...)
	return tx, nil
}
