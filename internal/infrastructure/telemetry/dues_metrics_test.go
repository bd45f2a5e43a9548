package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

type fakeBacklog struct {
	counts map[string]map[string]int64
	err    error
	calls  chan struct{}
}

func (f *fakeBacklog) CountOpenObligations(context.Context) (map[string]map[string]int64, error) {
	if f.calls != nil {
		select {
		case f.calls <- struct{}{}:
		default:
		}
	}
	return f.counts, f.err
}

func newTestDuesMetrics(t *testing.T, backlog ObligationBacklogProvider) (*DuesMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	dm, err := NewDuesMetrics(DuesMetricsConfig{
		Meter:           NewMeterProviderWithReader(reader, nil).Meter("dues"),
		BacklogProvider: backlog,
	})
	require.NoError(t, err)
	return dm, reader
}

func TestNewDuesMetrics_RequiresMeter(t *testing.T) {
	_, err := NewDuesMetrics(DuesMetricsConfig{})
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestDuesMetrics_Counters(t *testing.T) {
	dm, reader := newTestDuesMetrics(t, nil)
	ctx := t.Context()

	dm.RecordSwept(ctx, "fine", 2)
	dm.RecordSwept(ctx, "fine", 0)
	dm.RecordSettled(ctx, "periodic_charge", 3)
	dm.RecordReleased(ctx, "installment", 1)
	dm.RecordTransaction(ctx, "transfer", "completed")
	dm.RecordAgreement(ctx, decimal.RequireFromString("1500.50"), 3)
	dm.RecordProjected(ctx, 1)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, got["dues_obligations_swept_total"], AttrObligationKind.String("fine")))
	assert.Equal(t, int64(3), sumValue(t, got["dues_obligations_settled_total"], AttrObligationKind.String("periodic_charge")))
	assert.Equal(t, int64(1), sumValue(t, got["dues_obligations_released_total"], AttrObligationKind.String("installment")))
	assert.Equal(t, int64(1), sumValue(t, got["dues_transactions_total"], AttrPaymentMethod.String("transfer")))
	assert.Equal(t, int64(1), sumValue(t, got["dues_agreements_created_total"], AttrInstallments.Int(3)))
	assert.Contains(t, got, "dues_agreement_amount_total")
	assert.Contains(t, got, "dues_charges_projected_total")
}

func TestDuesMetrics_NilIsNoop(t *testing.T) {
	var dm *DuesMetrics
	assert.NotPanics(t, func() {
		dm.RecordSwept(t.Context(), "fine", 1)
		dm.RecordTransaction(t.Context(), "cash", "pending")
		dm.RecordAgreement(t.Context(), decimal.NewFromInt(1), 1)
		dm.StartPeriodicCollection(t.Context(), time.Second)
		dm.Stop()
	})
}

func TestDuesMetrics_BacklogGauge(t *testing.T) {
	backlog := &fakeBacklog{
		counts: map[string]map[string]int64{
			"fine": {"pending": 4, "overdue": 1},
		},
		calls: make(chan struct{}, 1),
	}
	dm, reader := newTestDuesMetrics(t, backlog)

	dm.StartPeriodicCollection(t.Context(), time.Hour)
	select {
	case <-backlog.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("backlog was never sampled")
	}
	dm.Stop()
	dm.Stop()

	require.Eventually(t, func() bool {
		got := collect(t, reader)
		m, ok := got["dues_open_obligations"]
		if !ok {
			return false
		}
		v, found := gaugeValue(t, m, AttrObligationKind.String("fine"), AttrObligationStatus.String("pending"))
		return found && v == 4
	}, 5*time.Second, 10*time.Millisecond)
}

func TestDuesMetrics_BacklogErrorIsLogged(t *testing.T) {
	dm, reader := newTestDuesMetrics(t, &fakeBacklog{err: errors.New("db down")})
	dm.collectBacklog(t.Context())

	_, ok := collect(t, reader)["dues_open_obligations"]
	assert.False(t, ok)
}
