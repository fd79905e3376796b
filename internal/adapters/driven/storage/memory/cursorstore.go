package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure CursorStore implements the interface.
var _ driven.CursorStore = (*CursorStore)(nil)

// CursorStore is an in-memory implementation of driven.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]domain.SyncCursor
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]domain.SyncCursor),
	}
}

// Save stores or advances a cursor.
func (s *CursorStore) Save(_ context.Context, cursor domain.SyncCursor) error {
	if cursor.JobName == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.cursors[cursor.JobName]; ok && cursor.LastProcessedAt.Before(prev.LastProcessedAt) {
		cursor.LastProcessedAt = prev.LastProcessedAt
	}
	s.cursors[cursor.JobName] = cursor
	return nil
}

// Get retrieves the cursor of a job.
func (s *CursorStore) Get(_ context.Context, jobName string) (*domain.SyncCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cursor, ok := s.cursors[jobName]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cursor, nil
}

// Delete removes the cursor of a job.
func (s *CursorStore) Delete(_ context.Context, jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, jobName)
	return nil
}
