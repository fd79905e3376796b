package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// Ensure OrderStore implements the interface.
var _ driven.OrderStore = (*OrderStore)(nil)

type orderKey struct {
	accountID string
	orderID   string
}

// OrderStore is an in-memory implementation of driven.OrderStore.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[orderKey]domain.Order
	items  map[orderKey][]domain.OrderItem
}

// NewOrderStore creates a new in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[orderKey]domain.Order),
		items:  make(map[orderKey][]domain.OrderItem),
	}
}

// UpsertOrder stores or overwrites an order header.
func (s *OrderStore) UpsertOrder(_ context.Context, order domain.Order) error {
	if order.AccountID == "" || order.OrderID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[orderKey{order.AccountID, order.OrderID}] = order
	return nil
}

// ReplaceItems swaps the whole item set of an order.
func (s *OrderStore) ReplaceItems(_ context.Context, accountID, orderID string, items []domain.OrderItem) error {
	if accountID == "" || orderID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := orderKey{accountID, orderID}
	if len(items) == 0 {
		delete(s.items, key)
		return nil
	}
	s.items[key] = append([]domain.OrderItem(nil), items...)
	return nil
}

// GetOrder retrieves an order header.
func (s *OrderStore) GetOrder(_ context.Context, accountID, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderKey{accountID, orderID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

// ListItems returns the items of an order.
func (s *OrderStore) ListItems(_ context.Context, accountID, orderID string) ([]domain.OrderItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.OrderItem(nil), s.items[orderKey{accountID, orderID}]...), nil
}

// CountOrders returns the number of orders stored for an account.
func (s *OrderStore) CountOrders(_ context.Context, accountID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for k := range s.orders {
		if k.accountID == accountID {
			n++
		}
	}
	return n, nil
}
