package idempotency

import (
	"context"
	"sync"
	"time"
)

type reservation struct {
	rowKey    string
	expiresAt time.Time
}

// InMemory is a process-local replay guard with TTL semantics matching the
// Redis implementation. Used for local development and tests.
type InMemory struct {
	mu           sync.Mutex
	reservations map[string]reservation
	ttl          time.Duration
	clock        func() time.Time
}

// NewInMemory constructs an in-memory replay guard.
func NewInMemory(ttl time.Duration) *InMemory {
	return &InMemory{
		reservations: make(map[string]reservation),
		ttl:          ttl,
		clock:        time.Now,
	}
}

// WithClock overrides the time source for tests.
func (s *InMemory) WithClock(clock func() time.Time) *InMemory {
	s.clock = clock
	return s
}

func (s *InMemory) Reserve(_ context.Context, key, rowKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if res, ok := s.reservations[key]; ok && now.Before(res.expiresAt) {
		return res.rowKey, nil
	}
	s.reservations[key] = reservation{rowKey: rowKey, expiresAt: now.Add(s.ttl)}
	return rowKey, nil
}
