package telemetry

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetricsConfig holds configuration for database metrics collection.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration // default 200ms
	PoolStatsInterval  time.Duration // default 15s
}

// DBMetrics records query counts, latency, slow queries and pool usage.
type DBMetrics struct {
	poolConnections    *Gauge
	poolConnectionsMax *Gauge
	queryTotal         *Counter
	queryDuration      *Histogram
	slowQueryTotal     *Counter

	config   DBMetricsConfig
	logger   *zap.Logger
	sqlDB    *sql.DB
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewDBMetrics creates the database instruments on meter.
func NewDBMetrics(meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	if cfg.PoolStatsInterval <= 0 {
		cfg.PoolStatsInterval = 15 * time.Second
	}

	m := &DBMetrics{config: cfg, logger: logger, stopCh: make(chan struct{})}
	var err error
	if m.poolConnections, err = NewGauge(meter, "db_pool_connections",
		"Connections in the pool by state", "{connection}"); err != nil {
		return nil, err
	}
	if m.poolConnectionsMax, err = NewGauge(meter, "db_pool_connections_max",
		"Maximum open connections allowed", "{connection}"); err != nil {
		return nil, err
	}
	if m.queryTotal, err = NewCounter(meter, "db_query_total",
		"Database queries by operation", "{query}"); err != nil {
		return nil, err
	}
	if m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total",
		"Queries slower than the configured threshold by table", "{query}"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordQuery records one finished query.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration) {
	if operation == "" {
		operation = "OTHER"
	}
	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))
	if duration > m.config.SlowQueryThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
}

// StartPoolStatsCollection samples sql.DB pool stats every PoolStatsInterval
// until Stop or ctx is done.
func (m *DBMetrics) StartPoolStatsCollection(ctx context.Context) {
	if m.sqlDB == nil {
		m.logger.Warn("Cannot collect pool stats: sql.DB not set")
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.config.PoolStatsInterval)
		defer ticker.Stop()

		m.collectPoolStats(ctx)
		for {
			select {
			case <-ticker.C:
				m.collectPoolStats(ctx)
			case <-m.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (m *DBMetrics) collectPoolStats(ctx context.Context) {
	stats := m.sqlDB.Stats()
	m.poolConnectionsMax.Record(ctx, int64(stats.MaxOpenConnections))
	m.poolConnections.Record(ctx, int64(stats.Idle), AttrDBState.String("idle"))
	m.poolConnections.Record(ctx, int64(stats.InUse), AttrDBState.String("in_use"))
	m.poolConnections.Record(ctx, int64(stats.OpenConnections), AttrDBState.String("open"))
}

// Stop ends pool stats collection. Safe to call more than once.
func (m *DBMetrics) Stop() {
	if m == nil {
		return
	}
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}

type dbMetricsStartKey struct{}

// RegisterDBMetrics installs query callbacks on db and returns the metrics
// for pool collection and shutdown. It returns nil when metrics are disabled.
func RegisterDBMetrics(db *gorm.DB, meterProvider *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || !meterProvider.IsEnabled() {
		return nil, nil
	}

	m, err := NewDBMetrics(meterProvider.Meter("db.client"), cfg, logger)
	if err != nil {
		return nil, err
	}
	if m.sqlDB, err = db.DB(); err != nil {
		return nil, err
	}

	before := func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		tx.Statement.Context = context.WithValue(ctx, dbMetricsStartKey{}, time.Now())
	}
	after := func(tx *gorm.DB, verb string) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		var elapsed time.Duration
		if start, ok := ctx.Value(dbMetricsStartKey{}).(time.Time); ok {
			elapsed = time.Since(start)
		}
		m.RecordQuery(ctx, verb, tx.Statement.Table, elapsed)
	}
	if err := registerAround(db, "db_metrics", before, after); err != nil {
		return nil, err
	}

	m.logger.Info("Database metrics registered",
		zap.Duration("slow_query_threshold", m.config.SlowQueryThreshold),
		zap.Duration("pool_stats_interval", m.config.PoolStatsInterval),
	)
	return m, nil
}
