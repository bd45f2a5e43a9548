package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/auth"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/cache"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/event"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/logger"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence/models"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/storage"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/handler"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()
	obs, log := setupObservability(ctx, cfg)
	defer obs.shutdown(log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting dues engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	loc, err := cfg.Billing.Location()
	if err != nil {
		log.Fatal("Invalid billing timezone", zap.String("timezone", cfg.Billing.Timezone), zap.Error(err))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", db.Driver))

	if db.Driver == persistence.DriverSQLite {
		// Postgres schemas are owned by cmd/migrate
		if err := db.AutoMigrate(models.AllModels()...); err != nil {
			log.Fatal("Failed to auto-migrate sqlite schema", zap.Error(err))
		}
	}
	dbMetrics := obs.instrumentDatabase(ctx, cfg, db, log)
	defer dbMetrics.Stop()

	repos := persistence.NewRepositories(db.DB)

	duesMetrics := obs.duesMetrics(persistence.NewObligationBacklog(db.DB), log)
	duesMetrics.StartPeriodicCollection(ctx, cfg.Billing.BacklogInterval)
	defer duesMetrics.Stop()

	// Events: notifications fan out after commit, once per event id
	idempotency := cache.NewIdempotencyStore(ctx, cfg.Redis, log)
	defer func() {
		if err := idempotency.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	eventBus := event.NewInMemoryEventBus(log)
	notifications := event.NewIdempotentHandler(
		appdues.NewNotificationHandler(log),
		idempotency,
		shared.DefaultIdempotencyConfig(),
		log,
	)
	eventBus.Subscribe(notifications)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered", zap.Strings("notification_events", notifications.EventTypes()))

	// Application services
	svcCfg := appdues.ServiceConfig{
		Scope:          persistence.NewGormTransactionScope(db.DB),
		Repos:          repos,
		EventPublisher: eventBus,
		Metrics:        duesMetrics,
		Logger:         log,
		Location:       loc,
	}
	projector := appdues.NewNextPeriodProjector(svcCfg)
	sweeper := appdues.NewOverdueSweeper(svcCfg)
	reconciler := appdues.NewTransactionReconciler(svcCfg, projector)
	obligations := appdues.NewObligationService(svcCfg, sweeper, projector)
	builder := appdues.NewAgreementBuilder(svcCfg)
	evidence := appdues.NewEvidenceService(appdues.EvidenceServiceConfig{
		Storage:   newObjectStorage(ctx, cfg, log),
		Repos:     repos,
		URLExpiry: cfg.Storage.PresignExpiration,
		Logger:    log,
	})
	callbacks := appdues.NewPaymentCallbackService(appdues.PaymentCallbackServiceConfig{
		Reconciler:  reconciler,
		Repos:       repos,
		Idempotency: idempotency,
		TTL:         cfg.Billing.IdempotencyTTL,
		Logger:      log,
	})

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	base := handler.BaseHandler{Location: loc}
	engine, stopLimiter, err := router.NewEngine(router.Config{
		Handlers: router.Handlers{
			System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.Pinger{
				"database": func(ctx context.Context) error {
					sqlDB, err := db.DB.DB()
					if err != nil {
						return err
					}
					return sqlDB.PingContext(ctx)
				},
			}),
			Transactions: handler.NewTransactionHandler(base, reconciler, obligations, evidence),
			Obligations:  handler.NewObligationHandler(base, obligations),
			Agreements:   handler.NewAgreementHandler(base, builder, obligations),
			Callbacks:    handler.NewPaymentCallbackHandler(base, callbacks, cfg.Billing.CallbackSecret),
		},
		JWTService:     auth.NewJWTService(cfg.JWT),
		HTTP:           cfg.HTTP,
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: obs.tracer.IsEnabled(),
		MetricsEnabled: obs.meter.IsEnabled(),
		MeterProvider:  obs.meter,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}
	defer stopLimiter()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

// newObjectStorage returns S3 storage when enabled. Otherwise evidence URLs
// point at a local stub, which is enough for development.
func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) appdues.ObjectStorage {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, using stub evidence URLs")
		return storage.NewStubObjectStorage("")
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create object storage", zap.Error(err))
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		log.Warn("Failed to ensure evidence bucket", zap.String("bucket", s3.Bucket()), zap.Error(err))
	}
	return s3
}
