package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appdues "github.com/TomasTM302/ARC-entregable-sub001/internal/application/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/event"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/logger"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/persistence"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// app is the service graph shared by every subcommand
type app struct {
	log         *zap.Logger
	db          *persistence.Database
	bus         *event.InMemoryEventBus
	loc         *time.Location
	reconciler  *appdues.TransactionReconciler
	obligations *appdues.ObligationService
	sweeper     *appdues.OverdueSweeper
	builder     *appdues.AgreementBuilder
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var logLevel string

	root := &cobra.Command{
		Use:           "duesctl",
		Short:         "Operator tooling for the dues engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context(), logLevel)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newSweepCmd(a),
		newChargeCmd(a),
		newAgreementCmd(a),
		newTxCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context, logLevel string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.loc, err = cfg.Billing.Location(); err != nil {
		return fmt.Errorf("billing timezone %q: %w", cfg.Billing.Timezone, err)
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(logLevel), cfg.Telemetry.DBSlowQueryThresh)
	if a.db, err = persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	a.bus = event.NewInMemoryEventBus(log)
	a.bus.Subscribe(appdues.NewNotificationHandler(log))
	if err := a.bus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}

	svc := appdues.ServiceConfig{
		Scope:          persistence.NewGormTransactionScope(a.db.DB),
		Repos:          persistence.NewRepositories(a.db.DB),
		EventPublisher: a.bus,
		Logger:         log,
		Location:       a.loc,
	}
	projector := appdues.NewNextPeriodProjector(svc)
	a.sweeper = appdues.NewOverdueSweeper(svc)
	a.reconciler = appdues.NewTransactionReconciler(svc, projector)
	a.obligations = appdues.NewObligationService(svc, a.sweeper, projector)
	a.builder = appdues.NewAgreementBuilder(svc)
	return nil
}

func (a *app) close() error {
	if a.bus != nil {
		if err := a.bus.Stop(context.Background()); err != nil {
			a.log.Warn("Error stopping event bus", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return nil
}

// parseDate reads a YYYY-MM-DD flag in the billing location
func (a *app) parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dto.DateLayout, value, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must use the YYYY-MM-DD format", flag)
	}
	return t, nil
}

func parseOptionalID(flag, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be a valid UUID", flag)
	}
	return &id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
