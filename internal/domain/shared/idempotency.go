package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed message ids (gateway callbacks, replayed
// requests) so the same message is acted on once.
type IdempotencyStore interface {
	// MarkProcessed marks an id as processed with a TTL.
	// Returns true if the id was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an id has already been processed
	IsProcessed(ctx context.Context, id string) (bool, error)

	// Close releases resources held by the store
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL after which the same id can be processed again. Default: 24 hours.
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
