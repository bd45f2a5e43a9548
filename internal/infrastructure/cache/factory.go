package cache

import (
	"context"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
	"github.com/TomasTM302/ARC-entregable-sub001/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a Redis store when Redis is enabled and
// reachable. Otherwise it falls back to an in-memory store, which only
// dedups callbacks that reach the same instance.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) shared.IdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store; "+
			"callbacks delivered to different instances may be processed twice",
			zap.String("addr", cfg.RedisAddr()),
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore()
	}
	logger.Info("Using Redis idempotency store", zap.String("addr", cfg.RedisAddr()))
	return store
}
