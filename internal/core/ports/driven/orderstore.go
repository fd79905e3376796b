package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// OrderStore persists order headers and their line items.
type OrderStore interface {
	// UpsertOrder inserts or overwrites the order keyed by (account_id, order_id).
	UpsertOrder(ctx context.Context, order domain.Order) error

	// ReplaceItems deletes every item of (accountID, orderID) and inserts
	// items in their place. Implementations should make the swap atomic.
	ReplaceItems(ctx context.Context, accountID, orderID string, items []domain.OrderItem) error

	// GetOrder retrieves an order. Returns domain.ErrNotFound if absent.
	GetOrder(ctx context.Context, accountID, orderID string) (*domain.Order, error)

	// ListItems returns the items of an order.
	ListItems(ctx context.Context, accountID, orderID string) ([]domain.OrderItem, error)

	// CountOrders returns the number of orders stored for an account.
	CountOrders(ctx context.Context, accountID string) (int, error)
}
