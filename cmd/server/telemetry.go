package main

import (
	"context"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/logger"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// observability holds the OpenTelemetry providers and the profiler. Every
// provider is a no-op when its feature is disabled.
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupObservability builds the logger and the telemetry providers. The
// returned logger tees stdout with the OTLP log bridge.
func setupObservability(ctx context.Context, cfg *config.Config) (*observability, *zap.Logger) {
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	baseCore, err := logger.NewCore(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	bootLog := zap.New(baseCore, zap.AddCaller())

	tc := cfg.Telemetry
	obs := &observability{}

	obs.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled && tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize OTEL logs", zap.Error(err))
	}
	log := telemetry.NewBridgedLogger(baseCore,
		telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    tc.ServiceName,
			LoggerProvider: obs.logs,
			Level:          logger.ParseLevel(cfg.Log.Level),
		}),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)

	obs.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	obs.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.Enabled && tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	obs.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tc.ProfilingEnabled,
		ServerAddress:   tc.ProfilingServerAddress,
		ApplicationName: tc.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if obs.profiler.IsEnabled() && obs.tracer.IsEnabled() {
		obs.tracer.EnableSpanProfiles()
	}
	return obs, log
}

// instrumentDatabase installs query tracing and metrics on db
func (o *observability) instrumentDatabase(ctx context.Context, cfg *config.Config, db *persistence.Database, log *zap.Logger) *telemetry.DBMetrics {
	plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        db.Driver,
	}, log)
	if err := plugin.RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	metrics, err := telemetry.RegisterDBMetrics(db.DB, o.meter, telemetry.DBMetricsConfig{
		Enabled:            true,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if metrics != nil {
		metrics.StartPoolStatsCollection(ctx)
	}
	return metrics
}

// duesMetrics returns the dues instruments, or nil when metrics are off
func (o *observability) duesMetrics(backlog telemetry.ObligationBacklogProvider, log *zap.Logger) *telemetry.DuesMetrics {
	if !o.meter.IsEnabled() {
		return nil
	}
	m, err := telemetry.NewDuesMetrics(telemetry.DuesMetricsConfig{
		Meter:           o.meter.Meter("dues"),
		Logger:          log,
		BacklogProvider: backlog,
	})
	if err != nil {
		log.Warn("Failed to create dues metrics, continuing without them", zap.Error(err))
		return nil
	}
	return m
}

// shutdown flushes and stops every provider
func (o *observability) shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := o.profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := o.meter.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := o.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := o.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}
