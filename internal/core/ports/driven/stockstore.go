package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// StockStore persists stock snapshots and SKU mappings.
// Both are keyed by (account_id, sku); writes are idempotent upserts.
type StockStore interface {
	// UpsertSnapshot inserts or overwrites the snapshot for its key.
	UpsertSnapshot(ctx context.Context, snapshot domain.StockSnapshot) error

	// UpsertMapping inserts or overwrites the mapping for its key.
	UpsertMapping(ctx context.Context, mapping domain.SKUMapping) error

	// GetSnapshot retrieves a snapshot. Returns domain.ErrNotFound if absent.
	GetSnapshot(ctx context.Context, accountID, sku string) (*domain.StockSnapshot, error)

	// GetMapping retrieves a mapping. Returns domain.ErrNotFound if absent.
	GetMapping(ctx context.Context, accountID, sku string) (*domain.SKUMapping, error)

	// ListSnapshots returns all snapshots of an account ordered by SKU.
	ListSnapshots(ctx context.Context, accountID string) ([]domain.StockSnapshot, error)
}
