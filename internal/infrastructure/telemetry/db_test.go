package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type receiptRow struct {
	ID     uint `gorm:"primaryKey"`
	Amount int64
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&receiptRow{}))
	return db
}

func TestDetectOperationType(t *testing.T) {
	assert.Equal(t, "SELECT", detectOperationType("  select 1"))
	assert.Equal(t, "UPDATE", detectOperationType("UPDATE fines SET status = 'overdue'"))
	assert.Equal(t, "OTHER", detectOperationType("PRAGMA foreign_keys = ON"))
}

func TestDBTracingPlugin(t *testing.T) {
	recorder := installSpanRecorder(t)
	db := openTestDB(t)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	require.NoError(t, NewDBTracingPlugin(cfg, zaptest.NewLogger(t)).RegisterOtelGorm(db))

	ctx, parent := StartSpan(t.Context(), "test")
	require.NoError(t, db.WithContext(ctx).Create(&receiptRow{Amount: 500}).Error)
	var rows []receiptRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	parent.End()

	var dbSpans int
	for _, s := range recorder.Ended() {
		if s.Parent().SpanID() == parent.SpanContext().SpanID() {
			dbSpans++
		}
	}
	assert.GreaterOrEqual(t, dbSpans, 2)
	assert.NotNil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, NewDBTracingPlugin(DBTracingConfig{}, nil).RegisterOtelGorm(db))
	assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
}

func TestRegisterDBMetrics(t *testing.T) {
	db := openTestDB(t)
	reader := sdkmetric.NewManualReader()
	mp := NewMeterProviderWithReader(reader, nil)

	m, err := RegisterDBMetrics(db, mp, DBMetricsConfig{Enabled: true}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, m)

	require.NoError(t, db.Create(&receiptRow{Amount: 1}).Error)
	require.NoError(t, db.Create(&receiptRow{Amount: 2}).Error)
	var count int64
	require.NoError(t, db.Model(&receiptRow{}).Count(&count).Error)

	m.collectPoolStats(t.Context())
	m.Stop()

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumValue(t, got["db_query_total"], AttrDBOperation.String("INSERT")))
	assert.GreaterOrEqual(t, sumValue(t, got["db_query_total"], AttrDBOperation.String("SELECT")), int64(1))
	v, ok := gaugeValue(t, got["db_pool_connections_max"])
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := openTestDB(t)

	m, err := RegisterDBMetrics(db, nil, DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = RegisterDBMetrics(db, NewMeterProviderWithReader(sdkmetric.NewManualReader(), nil), DBMetricsConfig{}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)
	m.Stop()
}
