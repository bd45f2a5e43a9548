package dues_test

import (
	"errors"
	"testing"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callbackFixture struct {
	*fixture
	reconciler *appdues.TransactionReconciler
	service    *appdues.PaymentCallbackService
	charge     *dues.PeriodicCharge
	tx         *dues.Transaction
}

func newCallbackFixture(t *testing.T) *callbackFixture {
	t.Helper()
	f := newFixture(t, april2024)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	reconciler := appdues.NewTransactionReconciler(f.cfg, nil)
	charge := f.addCharge(5, 2024, 500, dues.ObligationStatusOverdue)
	tx, err := reconciler.Create(f.ctx, appdues.CreateTransactionInput{
		ResidentID:  f.resident.ID,
		Amount:      amountOf("500"),
		Method:      dues.TransactionMethodCard,
		Type:        dues.TransactionTypeMaintenance,
		Obligations: []dues.ObligationRef{charge.Ref()},
	})
	require.NoError(t, err)
	require.Equal(t, dues.TransactionStatusPending, tx.Status)

	return &callbackFixture{
		fixture:    f,
		reconciler: reconciler,
		service: appdues.NewPaymentCallbackService(appdues.PaymentCallbackServiceConfig{
			Reconciler:  reconciler,
			Repos:       f.repos,
			Idempotency: store,
		}),
		charge: charge,
		tx:     tx,
	}
}

func TestPaymentCallbackService_SuccessApprovesOnce(t *testing.T) {
	cf := newCallbackFixture(t)
	in := appdues.PaymentCallbackInput{
		Gateway:       "stripe",
		EventID:       "evt_001",
		TransactionID: cf.tx.ID,
		Outcome:       appdues.GatewayOutcomeSuccess,
	}

	result, err := cf.service.Handle(cf.ctx, in)
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, dues.TransactionStatusCompleted, result.Transaction.Status)
	assert.Contains(t, result.Transaction.Notes, "stripe callback evt_001")
	assert.Equal(t, dues.ObligationStatusSettled, cf.reloadCharge(cf.charge.ID).Status)

	again, err := cf.service.Handle(cf.ctx, in)
	require.NoError(t, err)
	assert.True(t, again.AlreadyProcessed)
	assert.Equal(t, dues.TransactionStatusCompleted, again.Transaction.Status)

	approvals := 0
	for _, typ := range cf.publisher.types() {
		if typ == dues.EventTypeTransactionApproved {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)
}

func TestPaymentCallbackService_RedeliveryUnderNewEventIDIsNoOp(t *testing.T) {
	cf := newCallbackFixture(t)
	_, err := cf.service.Handle(cf.ctx, appdues.PaymentCallbackInput{
		Gateway: "stripe", EventID: "evt_a", TransactionID: cf.tx.ID, Outcome: appdues.GatewayOutcomeSuccess,
	})
	require.NoError(t, err)

	result, err := cf.service.Handle(cf.ctx, appdues.PaymentCallbackInput{
		Gateway: "stripe", EventID: "evt_b", TransactionID: cf.tx.ID, Outcome: appdues.GatewayOutcomeSuccess,
	})
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, dues.TransactionStatusCompleted, result.Transaction.Status)
}

func TestPaymentCallbackService_FailureRejectsAndReleases(t *testing.T) {
	cf := newCallbackFixture(t)

	result, err := cf.service.Handle(cf.ctx, appdues.PaymentCallbackInput{
		Gateway:       "stripe",
		EventID:       "evt_declined",
		TransactionID: cf.tx.ID,
		Outcome:       appdues.GatewayOutcomeFailure,
		Message:       "card declined",
	})
	require.NoError(t, err)
	assert.Equal(t, dues.TransactionStatusRejected, result.Transaction.Status)
	assert.Contains(t, result.Transaction.Notes, "card declined")

	released := cf.reloadCharge(cf.charge.ID)
	assert.Equal(t, dues.ObligationStatusPending, released.Status)
	assert.Nil(t, released.TransactionID)

	// A success arriving after the rejection cannot revive the transaction.
	_, err = cf.service.Handle(cf.ctx, appdues.PaymentCallbackInput{
		Gateway: "stripe", EventID: "evt_late", TransactionID: cf.tx.ID, Outcome: appdues.GatewayOutcomeSuccess,
	})
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

func TestPaymentCallbackService_Validation(t *testing.T) {
	cf := newCallbackFixture(t)

	tests := []struct {
		name string
		in   appdues.PaymentCallbackInput
		want error
	}{
		{"missing gateway", appdues.PaymentCallbackInput{EventID: "e", TransactionID: cf.tx.ID, Outcome: appdues.GatewayOutcomeSuccess}, shared.ErrInvalidArgument},
		{"missing event", appdues.PaymentCallbackInput{Gateway: "g", TransactionID: cf.tx.ID, Outcome: appdues.GatewayOutcomeSuccess}, shared.ErrInvalidArgument},
		{"unknown outcome", appdues.PaymentCallbackInput{Gateway: "g", EventID: "e", TransactionID: cf.tx.ID, Outcome: "maybe"}, shared.ErrInvalidArgument},
		{"unknown transaction", appdues.PaymentCallbackInput{Gateway: "g", EventID: "e", TransactionID: uuid.New(), Outcome: appdues.GatewayOutcomeSuccess}, shared.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cf.service.Handle(cf.ctx, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Equal(t, dues.TransactionStatusPending, mustTransaction(t, cf.fixture, cf.tx.ID).Status)
}

func mustTransaction(t *testing.T, f *fixture, id uuid.UUID) *dues.Transaction {
	t.Helper()
	tx, err := f.repos.TransactionRepo.FindByID(f.ctx, id)
	require.NoError(t, err)
	return tx
}
