package dues_test

import (
	"testing"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type unknownEvent struct {
	shared.BaseDomainEvent
}

func TestNotificationHandler_LogsDuesEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := appdues.NewNotificationHandler(zap.New(core))
	assert.Len(t, h.EventTypes(), 6)

	tx, err := dues.NewTransaction(uuid.New(), valueobject.NewMoneyFromCents(12000), dues.TransactionMethodCash,
		dues.TransactionTypeMaintenance, time.Now())
	require.NoError(t, err)

	require.NoError(t, h.Handle(t.Context(), dues.NewTransactionSubmittedEvent(tx, nil)))
	require.NoError(t, h.Handle(t.Context(), dues.NewObligationsSweptEvent(dues.SweepScope{}, 4)))

	entries := logs.FilterMessage("dues notification").All()
	require.Len(t, entries, 2)
	fields := entries[0].ContextMap()
	assert.Equal(t, dues.EventTypeTransactionSubmitted, fields["event_type"])
	assert.Equal(t, "120", fields["amount"])
	assert.Equal(t, int64(4), entries[1].ContextMap()["promoted"])
}

func TestNotificationHandler_RejectsUnknownEvent(t *testing.T) {
	h := appdues.NewNotificationHandler(nil)
	event := &unknownEvent{BaseDomainEvent: shared.NewBaseDomainEvent("SomethingElse", "Other", uuid.New())}
	assert.Error(t, h.Handle(t.Context(), event))
}
