package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

// InMemory holds objects in a map with the same overwrite semantics as the
// filesystem store. Used for local development and tests.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string][]byte // container + "/" + name → payload
}

// NewInMemory constructs an empty in-memory object store.
func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string][]byte)}
}

func key(container, name string) string {
	return container + "/" + name
}

func (s *InMemory) Put(ctx context.Context, container, name string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read object %q: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key(container, name)] = payload
	return int64(len(payload)), nil
}

func (s *InMemory) Get(_ context.Context, container, name string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.objects[key(container, name)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(payload)), nil
}

func (s *InMemory) Stat(_ context.Context, container, name string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.objects[key(container, name)]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return int64(len(payload)), nil
}
