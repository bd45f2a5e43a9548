package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DuesMetrics tracks the dues engine: sweeps, settlements, rejections,
// agreements and the open obligation backlog. A nil *DuesMetrics is valid
// and records nothing.
type DuesMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	sweptTotal       *Counter
	settledTotal     *Counter
	releasedTotal    *Counter
	transactionTotal *Counter
	agreementTotal   *Counter
	agreementAmount  *Counter
	projectedTotal   *Counter

	openObligations *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	backlogProvider ObligationBacklogProvider
}

// ObligationBacklogProvider reports open obligation counts for the periodic
// gauge, keyed by kind and then status.
type ObligationBacklogProvider interface {
	CountOpenObligations(ctx context.Context) (map[string]map[string]int64, error)
}

// DuesMetricsConfig holds configuration for dues metrics.
type DuesMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	BacklogProvider ObligationBacklogProvider
}

// NewDuesMetrics creates the dues instruments on the given meter.
func NewDuesMetrics(cfg DuesMetricsConfig) (*DuesMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	dm := &DuesMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		backlogProvider: cfg.BacklogProvider,
	}

	counters := []struct {
		target     **Counter
		name, desc string
		unit       string
	}{
		{&dm.sweptTotal, "dues_obligations_swept_total", "Obligations promoted to overdue by the sweeper", "{obligations}"},
		{&dm.settledTotal, "dues_obligations_settled_total", "Obligations settled by approved transactions", "{obligations}"},
		{&dm.releasedTotal, "dues_obligations_released_total", "Obligations returned to pending by rejected transactions", "{obligations}"},
		{&dm.transactionTotal, "dues_transactions_total", "Transactions by method and resulting status", "{transactions}"},
		{&dm.agreementTotal, "dues_agreements_created_total", "Payment agreements created", "{agreements}"},
		{&dm.agreementAmount, "dues_agreement_amount_total", "Total consolidated into agreements in cents", "{cents}"},
		{&dm.projectedTotal, "dues_charges_projected_total", "Next-period charges created after settlement", "{charges}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	dm.openObligations, err = NewGauge(cfg.Meter,
		"dues_open_obligations",
		"Open obligations by kind and status",
		"{obligations}",
	)
	if err != nil {
		return nil, err
	}
	return dm, nil
}

// RecordSwept records obligations of one kind promoted to overdue.
func (dm *DuesMetrics) RecordSwept(ctx context.Context, kind string, n int64) {
	if dm == nil || n <= 0 {
		return
	}
	dm.sweptTotal.Add(ctx, n, AttrObligationKind.String(kind))
}

// RecordSettled records obligations of one kind settled by a transaction.
func (dm *DuesMetrics) RecordSettled(ctx context.Context, kind string, n int64) {
	if dm == nil || n <= 0 {
		return
	}
	dm.settledTotal.Add(ctx, n, AttrObligationKind.String(kind))
}

// RecordReleased records obligations of one kind released by a rejection.
func (dm *DuesMetrics) RecordReleased(ctx context.Context, kind string, n int64) {
	if dm == nil || n <= 0 {
		return
	}
	dm.releasedTotal.Add(ctx, n, AttrObligationKind.String(kind))
}

// RecordTransaction records a transaction reaching status via method.
func (dm *DuesMetrics) RecordTransaction(ctx context.Context, method, status string) {
	if dm == nil {
		return
	}
	dm.transactionTotal.Inc(ctx,
		AttrPaymentMethod.String(method),
		AttrPaymentStatus.String(status),
	)
}

// RecordAgreement records a created agreement and its total.
func (dm *DuesMetrics) RecordAgreement(ctx context.Context, total decimal.Decimal, installments int) {
	if dm == nil {
		return
	}
	dm.agreementTotal.Inc(ctx, AttrInstallments.Int(installments))
	dm.agreementAmount.Add(ctx, total.Shift(2).IntPart())
}

// RecordProjected records next-period charges created by the projector.
func (dm *DuesMetrics) RecordProjected(ctx context.Context, n int64) {
	if dm == nil || n <= 0 {
		return
	}
	dm.projectedTotal.Add(ctx, n)
}

// StartPeriodicCollection samples the open obligation backlog every interval
// (default 5 minutes) until Stop or ctx is done. It does not block.
func (dm *DuesMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if dm == nil {
		return
	}
	dm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go dm.runPeriodicCollection(ctx, interval)
	})
}

func (dm *DuesMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dm.collectBacklog(ctx)
	for {
		select {
		case <-dm.stopChan:
			dm.logger.Info("Stopping periodic dues metrics collection")
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			dm.collectBacklog(ctx)
		}
	}
}

func (dm *DuesMetrics) collectBacklog(ctx context.Context) {
	if dm.backlogProvider == nil {
		dm.logger.Debug("No backlog provider configured, skipping obligation gauge")
		return
	}
	counts, err := dm.backlogProvider.CountOpenObligations(ctx)
	if err != nil {
		dm.logger.Warn("Failed to count open obligations", zap.Error(err))
		return
	}
	for kind, byStatus := range counts {
		for status, n := range byStatus {
			dm.openObligations.Record(ctx, n,
				AttrObligationKind.String(kind),
				AttrObligationStatus.String(status),
			)
		}
	}
}

// Stop stops the periodic collection.
func (dm *DuesMetrics) Stop() {
	if dm == nil {
		return
	}
	dm.stopOnce.Do(func() {
		close(dm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewDuesMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// Dues attribute keys
var (
	AttrObligationKind   = attribute.Key("obligation_kind")
	AttrObligationStatus = attribute.Key("obligation_status")
	AttrInstallments     = attribute.Key("installments")
)
