package dues

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/dues"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GatewayOutcome is what a payment gateway reports for a transaction
type GatewayOutcome string

const (
	GatewayOutcomeSuccess GatewayOutcome = "success"
	GatewayOutcomeFailure GatewayOutcome = "failure"
)

// IsValid checks if the outcome is known
func (o GatewayOutcome) IsValid() bool {
	return o == GatewayOutcomeSuccess || o == GatewayOutcomeFailure
}

// PaymentCallbackInput is a gateway notification about one transaction
type PaymentCallbackInput struct {
	Gateway       string
	EventID       string
	TransactionID uuid.UUID
	Outcome       GatewayOutcome
	Message       string
}

// PaymentCallbackResult reports how a callback was handled
type PaymentCallbackResult struct {
	Transaction      *dues.Transaction `json:"transaction"`
	AlreadyProcessed bool              `json:"already_processed"`
}

// PaymentCallbackService turns gateway notifications into approvals and
// rejections. Each gateway event is acted on once.
type PaymentCallbackService struct {
	reconciler  *TransactionReconciler
	repos       TransactionalRepositories
	idempotency shared.IdempotencyStore
	ttl         time.Duration
	logger      *zap.Logger
}

// PaymentCallbackServiceConfig holds configuration for the callback service
type PaymentCallbackServiceConfig struct {
	Reconciler  *TransactionReconciler
	Repos       TransactionalRepositories
	Idempotency shared.IdempotencyStore
	// TTL is how long a processed event id is remembered. Default: 24 hours.
	TTL    time.Duration
	Logger *zap.Logger
}

// NewPaymentCallbackService creates a new PaymentCallbackService
func NewPaymentCallbackService(cfg PaymentCallbackServiceConfig) *PaymentCallbackService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	return &PaymentCallbackService{
		reconciler:  cfg.Reconciler,
		repos:       cfg.Repos,
		idempotency: cfg.Idempotency,
		ttl:         ttl,
		logger:      logger,
	}
}

func (in PaymentCallbackInput) validate() error {
	if strings.TrimSpace(in.Gateway) == "" {
		return shared.InvalidArgument("gateway is required")
	}
	if strings.TrimSpace(in.EventID) == "" {
		return shared.InvalidArgument("event id is required")
	}
	if in.TransactionID == uuid.Nil {
		return shared.InvalidArgument("transaction id is required")
	}
	if !in.Outcome.IsValid() {
		return shared.InvalidArgument("unknown gateway outcome %q", in.Outcome)
	}
	return nil
}

// Handle applies a gateway callback. A pending card transaction is first moved
// into processing, then approved on success or rejected on failure. The event
// id is recorded only after the outcome commits, so a failed attempt can be
// retried by the gateway.
func (s *PaymentCallbackService) Handle(ctx context.Context, in PaymentCallbackInput) (*PaymentCallbackResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "handle_callback")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrGateway, in.Gateway,
		telemetry.SpanAttrTransactionID, in.TransactionID.String(),
	)

	if err := in.validate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	key := fmt.Sprintf("payment:%s:%s", in.Gateway, in.EventID)
	if s.idempotency != nil {
		done, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, shared.StorageFailure("check callback idempotency", err)
		}
		if done {
			s.logger.Info("Callback already processed (idempotency check)",
				zap.String("idempotency_key", key))
			tx, err := s.repos.Transactions().FindByID(ctx, in.TransactionID)
			if err != nil {
				return nil, err
			}
			return &PaymentCallbackResult{Transaction: tx, AlreadyProcessed: true}, nil
		}
	}

	s.logger.Info("Payment callback received",
		zap.String("gateway", in.Gateway),
		zap.String("event_id", in.EventID),
		zap.String("transaction_id", in.TransactionID.String()),
		zap.String("outcome", string(in.Outcome)))

	tx, err := s.apply(ctx, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, key, s.ttl); err != nil {
			s.logger.Warn("Failed to record processed callback",
				zap.String("idempotency_key", key),
				zap.Error(err))
		}
	}
	return &PaymentCallbackResult{Transaction: tx}, nil
}

func (s *PaymentCallbackService) apply(ctx context.Context, in PaymentCallbackInput) (*dues.Transaction, error) {
	tx, err := s.repos.Transactions().FindByID(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}

	target := dues.TransactionStatusCompleted
	if in.Outcome == GatewayOutcomeFailure {
		target = dues.TransactionStatusRejected
	}
	// A redelivered event under a new id finds the work already done.
	if tx.Status == target {
		return tx, nil
	}

	if tx.Status == dues.TransactionStatusPending {
		if _, err := s.reconciler.MarkProcessing(ctx, tx.ID); err != nil && !errors.Is(err, shared.ErrInvalidTransition) {
			return nil, err
		}
	}

	notes := fmt.Sprintf("%s callback %s", in.Gateway, in.EventID)
	if msg := strings.TrimSpace(in.Message); msg != "" {
		notes += ": " + msg
	}
	if target == dues.TransactionStatusCompleted {
		return s.reconciler.Approve(ctx, tx.ID, notes)
	}
	return s.reconciler.Reject(ctx, tx.ID, notes)
}
