package dues_test

import (
	"errors"
	"testing"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverdueSweeper_PromotesOnlyPendingPastDue(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	pastDue := f.addCharge(4, 2024, 500, dues.ObligationStatusPending)
	paid := f.addCharge(3, 2024, 500, dues.ObligationStatusSettled)
	cancelled := f.addCharge(2, 2024, 500, dues.ObligationStatusCancelled)
	notYetDue := f.addCharge(7, 2024, 500, dues.ObligationStatusPending)
	fine := f.addFine(150, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))

	promoted := appdues.NewOverdueSweeper(f.cfg).Sweep(f.ctx, dues.SweepScope{})
	assert.Equal(t, int64(2), promoted)

	assert.Equal(t, dues.ObligationStatusOverdue, f.reloadCharge(pastDue.ID).Status)
	assert.Equal(t, dues.ObligationStatusSettled, f.reloadCharge(paid.ID).Status)
	assert.Equal(t, dues.ObligationStatusCancelled, f.reloadCharge(cancelled.ID).Status)
	assert.Equal(t, dues.ObligationStatusPending, f.reloadCharge(notYetDue.ID).Status)
	assert.Equal(t, dues.ObligationStatusOverdue, f.reloadFine(fine.ID).Status)
	assert.Equal(t, []string{dues.EventTypeObligationsSwept}, f.publisher.types())

	// A second sweep finds nothing left to promote.
	assert.Zero(t, appdues.NewOverdueSweeper(f.cfg).Sweep(f.ctx, dues.SweepScope{}))
	assert.Len(t, f.publisher.types(), 1)
}

func TestOverdueSweeper_RespectsUnitScope(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	mine := f.addCharge(4, 2024, 500, dues.ObligationStatusPending)

	otherUnit := uuid.New()
	promoted := appdues.NewOverdueSweeper(f.cfg).Sweep(f.ctx, dues.SweepScope{UnitID: &otherUnit})
	assert.Zero(t, promoted)
	assert.Equal(t, dues.ObligationStatusPending, f.reloadCharge(mine.ID).Status)

	unitID := f.unit.ID
	promoted = appdues.NewOverdueSweeper(f.cfg).Sweep(f.ctx, dues.SweepScope{UnitID: &unitID})
	assert.Equal(t, int64(1), promoted)
	assert.Equal(t, dues.ObligationStatusOverdue, f.reloadCharge(mine.ID).Status)
}

func TestObligationService_ListByResidentSweepsAndOrders(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	may := f.addCharge(5, 2024, 500, dues.ObligationStatusPending)
	april := f.addCharge(4, 2024, 500, dues.ObligationStatusSettled)
	fine := f.addFine(120, time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC))

	svc := appdues.NewObligationService(f.cfg, nil, nil)
	page, err := svc.ListByResident(f.ctx, f.resident.ID, appdues.ObligationQuery{})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, april.ID, page.Items[0].Ref.ID)
	assert.Equal(t, fine.ID, page.Items[1].Ref.ID)
	assert.Equal(t, may.ID, page.Items[2].Ref.ID)

	// Reading swept the resident's past-due obligations first.
	assert.Equal(t, dues.ObligationStatusOverdue, page.Items[1].Status)
	assert.Equal(t, dues.ObligationStatusOverdue, page.Items[2].Status)
	assert.Equal(t, dues.ObligationStatusSettled, page.Items[0].Status)
}

func TestObligationService_ListFilters(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	f.addCharge(4, 2024, 500, dues.ObligationStatusSettled)
	f.addCharge(5, 2024, 500, dues.ObligationStatusSettled)
	f.addCharge(6, 2024, 500, dues.ObligationStatusPending)
	f.addFine(80, time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC))
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	t.Run("by month", func(t *testing.T) {
		page, err := svc.ListByUnit(f.ctx, f.unit.ID, appdues.ObligationQuery{Month: 5, Year: 2024})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("by kind", func(t *testing.T) {
		page, err := svc.ListByResident(f.ctx, f.resident.ID, appdues.ObligationQuery{Kind: dues.ObligationKindFine})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, dues.ObligationKindFine, page.Items[0].Ref.Kind)
	})

	t.Run("by status", func(t *testing.T) {
		page, err := svc.ListByUnit(f.ctx, f.unit.ID, appdues.ObligationQuery{Status: dues.ObligationStatusSettled})
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
	})

	t.Run("paging", func(t *testing.T) {
		page, err := svc.ListByUnit(f.ctx, f.unit.ID, appdues.ObligationQuery{Page: 2, PageSize: 3})
		require.NoError(t, err)
		assert.Equal(t, int64(4), page.Total)
		assert.Len(t, page.Items, 1)
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.ListByUnit(f.ctx, f.unit.ID, appdues.ObligationQuery{Month: 13, Year: 2024})
		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
		_, err = svc.ListByUnit(f.ctx, f.unit.ID, appdues.ObligationQuery{Month: 3})
		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
		_, err = svc.ListByUnit(f.ctx, f.unit.ID, appdues.ObligationQuery{Status: "late"})
		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	})
}

func TestObligationService_EnsureChargeIsIdempotent(t *testing.T) {
	f := newFixture(t, april2024)
	svc := appdues.NewObligationService(f.cfg, nil, nil)
	in := appdues.EnsureChargeInput{UnitID: f.unit.ID, Period: valueobject.Period{Month: 8, Year: 2024}}

	first, err := svc.EnsureCharge(f.ctx, in)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.True(t, first.Charge.Amount.Equal(amountOf("500")))
	assert.True(t, first.Charge.DueDate.Equal(time.Date(2024, time.August, 10, 0, 0, 0, 0, time.UTC)))

	override := amountOf("999")
	second, err := svc.EnsureCharge(f.ctx, appdues.EnsureChargeInput{UnitID: in.UnitID, Period: in.Period, Amount: &override})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Charge.ID, second.Charge.ID)
	assert.True(t, second.Charge.Amount.Equal(amountOf("500")))

	var count int64
	require.NoError(t, f.db.Model(&models.PeriodicChargeModel{}).
		Where("unit_id = ? AND month = ? AND year = ?", f.unit.ID, 8, 2024).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestObligationService_EnsureChargeValidation(t *testing.T) {
	f := newFixture(t, april2024)
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	_, err := svc.EnsureCharge(f.ctx, appdues.EnsureChargeInput{UnitID: f.unit.ID, Period: valueobject.Period{Month: 0, Year: 2024}})
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))

	negative := amountOf("-1")
	_, err = svc.EnsureCharge(f.ctx, appdues.EnsureChargeInput{UnitID: f.unit.ID, Period: valueobject.Period{Month: 1, Year: 2025}, Amount: &negative})
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))

	_, err = svc.EnsureCharge(f.ctx, appdues.EnsureChargeInput{UnitID: uuid.New(), Period: valueobject.Period{Month: 1, Year: 2025}})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestObligationService_StandaloneSettlement(t *testing.T) {
	f := newFixture(t, april2024)
	charge := f.addCharge(5, 2024, 500, dues.ObligationStatusOverdue)
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	_, err := svc.RecordStandaloneSettlement(f.ctx, appdues.StandaloneSettlementInput{
		Ref:    charge.Ref(),
		Amount: amountOf("450"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "does not match obligation amount")
	assert.Equal(t, dues.ObligationStatusOverdue, f.reloadCharge(charge.ID).Status)

	paidOn := time.Date(2024, time.June, 2, 9, 30, 0, 0, time.UTC)
	view, err := svc.RecordStandaloneSettlement(f.ctx, appdues.StandaloneSettlementInput{
		Ref:       charge.Ref(),
		Amount:    amountOf("500.00"),
		SettledAt: &paidOn,
	})
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusSettled, view.Status)

	stored := f.reloadCharge(charge.ID)
	require.NotNil(t, stored.SettledAt)
	assert.True(t, stored.SettledAt.Equal(paidOn))

	june, err := f.chargeFor(6, 2024)
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusPending, june.Status)

	// Settling again keeps the first settlement date.
	later := paidOn.AddDate(0, 0, 5)
	_, err = svc.RecordStandaloneSettlement(f.ctx, appdues.StandaloneSettlementInput{
		Ref:       charge.Ref(),
		Amount:    amountOf("500"),
		SettledAt: &later,
	})
	require.NoError(t, err)
	assert.True(t, f.reloadCharge(charge.ID).SettledAt.Equal(paidOn))
}

func TestObligationService_SetStatus(t *testing.T) {
	f := newFixture(t, april2024)
	fine := f.addFine(300, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	view, err := svc.SetStatus(f.ctx, appdues.SetStatusInput{Ref: fine.Ref(), Status: dues.ObligationStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusCancelled, view.Status)
	assert.Equal(t, dues.ObligationStatusCancelled, f.reloadFine(fine.ID).Status)

	_, err = svc.SetStatus(f.ctx, appdues.SetStatusInput{Ref: fine.Ref(), Status: dues.ObligationStatusPending})
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))

	_, err = svc.SetStatus(f.ctx, appdues.SetStatusInput{
		Ref:    dues.ObligationRef{Kind: dues.ObligationKindInstallment, ID: uuid.New()},
		Status: dues.ObligationStatusSettled,
	})
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestObligationService_SetStatusOverdueNeedsPastDueDate(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	september := f.addCharge(9, 2024, 500, dues.ObligationStatusPending)
	may := f.addCharge(5, 2024, 500, dues.ObligationStatusPending)
	settled := f.addCharge(3, 2024, 500, dues.ObligationStatusSettled)
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	tests := []struct {
		name    string
		charge  *dues.PeriodicCharge
		wantErr bool
		want    dues.ObligationStatus
	}{
		{name: "not yet due", charge: september, wantErr: true, want: dues.ObligationStatusPending},
		{name: "settled", charge: settled, wantErr: true, want: dues.ObligationStatusSettled},
		{name: "past due", charge: may, want: dues.ObligationStatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := svc.SetStatus(f.ctx, appdues.SetStatusInput{Ref: tt.charge.Ref(), Status: dues.ObligationStatusOverdue})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, view.Status)
			}
			assert.Equal(t, tt.want, f.reloadCharge(tt.charge.ID).Status)
		})
	}
}

func TestObligationService_SetStatusSettledProjectsNextPeriod(t *testing.T) {
	f := newFixture(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	march := f.addCharge(3, 2024, 500, dues.ObligationStatusOverdue)
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	paidOn := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)
	view, err := svc.SetStatus(f.ctx, appdues.SetStatusInput{
		Ref:       march.Ref(),
		Status:    dues.ObligationStatusSettled,
		SettledAt: &paidOn,
	})
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusSettled, view.Status)
	assert.True(t, f.reloadCharge(march.ID).SettledAt.Equal(paidOn))

	april, err := f.chargeFor(4, 2024)
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusPending, april.Status)
	assert.True(t, april.Amount.Equal(amountOf("500")))
	assert.True(t, april.DueDate.Equal(time.Date(2024, time.April, 10, 0, 0, 0, 0, time.UTC)))

	// Settling again is a no-op and projects nothing new.
	_, err = svc.SetStatus(f.ctx, appdues.SetStatusInput{Ref: march.Ref(), Status: dues.ObligationStatusSettled})
	require.NoError(t, err)
	var charges int64
	require.NoError(t, f.db.Model(&models.PeriodicChargeModel{}).Count(&charges).Error)
	assert.Equal(t, int64(2), charges)
}

func TestObligationService_SetStatusProcessingNeedsOpenTransaction(t *testing.T) {
	f := newFixture(t, april2024)
	fine := f.addFine(300, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC))
	svc := appdues.NewObligationService(f.cfg, nil, nil)
	reconciler := appdues.NewTransactionReconciler(f.cfg, nil)

	newTx := func(method dues.TransactionMethod) *dues.Transaction {
		tx, err := reconciler.Create(f.ctx, appdues.CreateTransactionInput{
			ResidentID: f.resident.ID,
			Amount:     amountOf("300"),
			Method:     method,
			Type:       dues.TransactionTypeOther,
		})
		require.NoError(t, err)
		return tx
	}
	completed := newTx(dues.TransactionMethodCash)
	_, err := reconciler.Approve(f.ctx, completed.ID, "")
	require.NoError(t, err)
	rejected := newTx(dues.TransactionMethodCash)
	_, err = reconciler.Reject(f.ctx, rejected.ID, "")
	require.NoError(t, err)
	open := newTx(dues.TransactionMethodCard)
	missing := uuid.New()

	tests := []struct {
		name    string
		txID    *uuid.UUID
		wantErr error
	}{
		{name: "no transaction", txID: nil, wantErr: shared.ErrInvalidArgument},
		{name: "unknown transaction", txID: &missing, wantErr: shared.ErrNotFound},
		{name: "completed transaction", txID: &completed.ID, wantErr: shared.ErrInvalidTransition},
		{name: "rejected transaction", txID: &rejected.ID, wantErr: shared.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetStatus(f.ctx, appdues.SetStatusInput{
				Ref:           fine.Ref(),
				Status:        dues.ObligationStatusProcessing,
				TransactionID: tt.txID,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			stored := f.reloadFine(fine.ID)
			assert.Equal(t, dues.ObligationStatusPending, stored.Status)
			assert.Nil(t, stored.TransactionID)
		})
	}

	view, err := svc.SetStatus(f.ctx, appdues.SetStatusInput{
		Ref:           fine.Ref(),
		Status:        dues.ObligationStatusProcessing,
		TransactionID: &open.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, dues.ObligationStatusProcessing, view.Status)
	require.NotNil(t, view.TransactionID)
	assert.Equal(t, open.ID, *view.TransactionID)
}

func TestObligationService_IssueFine(t *testing.T) {
	f := newFixture(t, april2024)
	svc := appdues.NewObligationService(f.cfg, nil, nil)

	fine, err := svc.IssueFine(f.ctx, appdues.IssueFineInput{
		ResidentID: f.resident.ID,
		Reason:     "parking in fire lane",
		Amount:     amountOf("250"),
	})
	require.NoError(t, err)
	assert.Equal(t, f.unit.ID, fine.UnitID)
	assert.Equal(t, dues.ObligationStatusPending, fine.Status)
	assert.True(t, fine.DueDate.Equal(time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)))

	stored := f.reloadFine(fine.ID)
	assert.Equal(t, "parking in fire lane", stored.Reason)

	homeless := f.addResident("Iker Sol", april2024, nil)
	_, err = svc.IssueFine(f.ctx, appdues.IssueFineInput{ResidentID: homeless.ID, Reason: "noise", Amount: amountOf("50")})
	assert.Equal(t, shared.CodePropertyNotFound, shared.CodeOf(err))

	_, err = svc.IssueFine(f.ctx, appdues.IssueFineInput{ResidentID: f.resident.ID, Reason: " ", Amount: amountOf("50")})
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
}

func TestObligationService_ListTransactions(t *testing.T) {
	f := newFixture(t, april2024)
	charge := f.addCharge(4, 2024, 500, dues.ObligationStatusPending)
	reconciler := appdues.NewTransactionReconciler(f.cfg, nil)
	_, err := reconciler.Create(f.ctx, appdues.CreateTransactionInput{
		ResidentID:  f.resident.ID,
		Amount:      amountOf("500"),
		Method:      dues.TransactionMethodTransfer,
		Type:        dues.TransactionTypeMaintenance,
		Obligations: []dues.ObligationRef{charge.Ref()},
	})
	require.NoError(t, err)
	_, err = reconciler.Create(f.ctx, appdues.CreateTransactionInput{
		ResidentID: f.resident.ID,
		Amount:     amountOf("20"),
		Method:     dues.TransactionMethodCard,
		Type:       dues.TransactionTypeOther,
	})
	require.NoError(t, err)

	svc := appdues.NewObligationService(f.cfg, nil, nil)
	residentID := f.resident.ID
	page, err := svc.ListTransactions(f.ctx, appdues.ListTransactionsInput{ResidentID: &residentID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = svc.ListTransactions(f.ctx, appdues.ListTransactionsInput{Status: dues.TransactionStatusPending})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, dues.TransactionMethodCard, page.Items[0].Method)

	_, err = svc.ListTransactions(f.ctx, appdues.ListTransactionsInput{Status: "lost"})
	assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
}
