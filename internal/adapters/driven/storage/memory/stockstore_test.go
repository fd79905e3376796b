package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

func TestStockStore_UpsertSnapshot_Overwrites(t *testing.T) {
	store := NewStockStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertSnapshot(ctx, domain.StockSnapshot{
		AccountID: "acc-1", SKU: "SKU-1", Quantity: 5, Status: domain.StockInStock,
	}))
	require.NoError(t, store.UpsertSnapshot(ctx, domain.StockSnapshot{
		AccountID: "acc-1", SKU: "SKU-1", Quantity: 0, Status: domain.StockOutOfStock,
	}))

	snapshots, err := store.ListSnapshots(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 0, snapshots[0].Quantity)
	assert.Equal(t, domain.StockOutOfStock, snapshots[0].Status)
}

func TestStockStore_UpsertSnapshot_InvalidKey(t *testing.T) {
	store := NewStockStore()
	err := store.UpsertSnapshot(context.Background(), domain.StockSnapshot{AccountID: "acc-1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockStore_ListSnapshots_ScopedAndSorted(t *testing.T) {
	store := NewStockStore()
	ctx := context.Background()
	for _, s := range []domain.StockSnapshot{
		{AccountID: "acc-1", SKU: "B"},
		{AccountID: "acc-1", SKU: "A"},
		{AccountID: "acc-2", SKU: "C"},
	} {
		require.NoError(t, store.UpsertSnapshot(ctx, s))
	}

	snapshots, err := store.ListSnapshots(ctx, "acc-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "A", snapshots[0].SKU)
	assert.Equal(t, "B", snapshots[1].SKU)
}

func TestStockStore_Mapping(t *testing.T) {
	store := NewStockStore()
	ctx := context.Background()
	now := time.Now()

	_, err := store.GetMapping(ctx, "acc-1", "SKU-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, store.UpsertMapping(ctx, domain.SKUMapping{
		AccountID: "acc-1", SKU: "SKU-1", CatalogItemID: "MLA1", LastResolvedAt: now,
	}))
	require.NoError(t, store.UpsertMapping(ctx, domain.SKUMapping{
		AccountID: "acc-1", SKU: "SKU-1", CatalogItemID: "MLA2", VariationID: "77", LastResolvedAt: now,
	}))

	mapping, err := store.GetMapping(ctx, "acc-1", "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, "MLA2", mapping.CatalogItemID)
	assert.Equal(t, "77", mapping.VariationID)
}

func TestStockStore_GetSnapshot_NotFound(t *testing.T) {
	store := NewStockStore()
	_, err := store.GetSnapshot(context.Background(), "acc-1", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
