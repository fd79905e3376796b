package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure StockStore implements the interface.
var _ driven.StockStore = (*StockStore)(nil)

type stockKey struct {
	accountID string
	sku       string
}

// StockStore is an in-memory implementation of driven.StockStore.
type StockStore struct {
	mu        sync.RWMutex
	snapshots map[stockKey]domain.StockSnapshot
	mappings  map[stockKey]domain.SKUMapping
}

// NewStockStore creates a new in-memory stock store.
func NewStockStore() *StockStore {
	return &StockStore{
		snapshots: make(map[stockKey]domain.StockSnapshot),
		mappings:  make(map[stockKey]domain.SKUMapping),
	}
}

// UpsertSnapshot stores or overwrites the snapshot for (account, sku).
func (s *StockStore) UpsertSnapshot(_ context.Context, snapshot domain.StockSnapshot) error {
	if snapshot.AccountID == "" || snapshot.SKU == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[stockKey{snapshot.AccountID, snapshot.SKU}] = snapshot
	return nil
}

// UpsertMapping stores or overwrites the mapping for (account, sku).
func (s *StockStore) UpsertMapping(_ context.Context, mapping domain.SKUMapping) error {
	if mapping.AccountID == "" || mapping.SKU == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings[stockKey{mapping.AccountID, mapping.SKU}] = mapping
	return nil
}

// GetSnapshot retrieves a snapshot.
func (s *StockStore) GetSnapshot(_ context.Context, accountID, sku string) (*domain.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[stockKey{accountID, sku}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snapshot, nil
}

// GetMapping retrieves a SKU mapping.
func (s *StockStore) GetMapping(_ context.Context, accountID, sku string) (*domain.SKUMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mapping, ok := s.mappings[stockKey{accountID, sku}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &mapping, nil
}

// ListSnapshots returns an account's snapshots ordered by SKU.
func (s *StockStore) ListSnapshots(_ context.Context, accountID string) ([]domain.StockSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var snapshots []domain.StockSnapshot
	for k, v := range s.snapshots {
		if k.accountID == accountID {
			snapshots = append(snapshots, v)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].SKU < snapshots[j].SKU
	})
	return snapshots, nil
}
