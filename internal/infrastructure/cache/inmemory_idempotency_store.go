package cache

import (
	"context"
	"sync"
	"time"

	"github.com/TomasTM302/ARC-entregable-sub001/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps processed ids in a map with per-entry
// expiry. State is per process, so it only dedups callbacks delivered to the
// same instance.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiresAt map[string]time.Time
	now       func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates the store and starts its expiry sweep.
// Close must be called to stop the sweep.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(time.Now, defaultSweepInterval)
}

func newInMemoryIdempotencyStore(now func() time.Time, sweepEvery time.Duration) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		expiresAt: make(map[string]time.Time),
		now:       now,
		stop:      make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(sweepEvery)
	return s
}

// MarkProcessed records id until ttl elapses. It returns false when id is
// already recorded and unexpired.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiresAt[id]; ok && now.Before(exp) {
		return false, nil
	}
	s.expiresAt[id] = now.Add(ttl)
	return true, nil
}

// IsProcessed reports whether id is recorded and unexpired
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiresAt[id]
	return ok && s.now().Before(exp), nil
}

// Close stops the sweep. Safe to call more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiresAt)
}

func (s *InMemoryIdempotencyStore) sweepLoop(every time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.expiresAt {
		if !now.Before(exp) {
			delete(s.expiresAt, id)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
