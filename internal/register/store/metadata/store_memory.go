package metadata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vemurivi/CareerShotApi/internal/register/models"
	"github.com/vemurivi/CareerShotApi/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded metadata store with the same create-if-absent
// semantics as the Postgres store. Used for local development and tests.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]map[string]*models.Record // partition key → row key → record
	seq     int
}

// NewInMemory constructs an empty in-memory metadata store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]map[string]*models.Record)}
}

func (s *InMemory) Create(_ context.Context, rec *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	partition, ok := s.records[rec.PartitionKey]
	if !ok {
		partition = make(map[string]*models.Record)
		s.records[rec.PartitionKey] = partition
	}
	if _, exists := partition[rec.RowKey]; exists {
		return sentinel.ErrConflict
	}

	s.seq++
	rec.CreatedAt = time.Now().UTC()
	rec.ETag = fmt.Sprintf("W/%d", s.seq)

	stored := *rec
	stored.FileExtensions = append([]string(nil), rec.FileExtensions...)
	partition[rec.RowKey] = &stored
	return nil
}

func (s *InMemory) FindByKey(_ context.Context, partitionKey, rowKey string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[partitionKey][rowKey]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *InMemory) ListByPartition(_ context.Context, partitionKey string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	partition := s.records[partitionKey]
	records := make([]*models.Record, 0, len(partition))
	for _, rec := range partition {
		out := *rec
		records = append(records, &out)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].RowKey < records[j].RowKey
		}
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}
