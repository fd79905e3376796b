package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// stockStore implements driven.StockStore.
type stockStore struct {
	store *Store
}

var _ driven.StockStore = (*stockStore)(nil)

// UpsertSnapshot inserts or overwrites the snapshot keyed by (account, sku).
func (s *stockStore) UpsertSnapshot(ctx context.Context, snap domain.StockSnapshot) error {
	if snap.AccountID == "" || snap.SKU == "" {
		return fmt.Errorf("%w: snapshot needs account and sku", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO stock_snapshots (account_id, sku, quantity, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account_id, sku) DO UPDATE SET
			quantity = excluded.quantity,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, snap.AccountID, snap.SKU, snap.Quantity, string(snap.Status), formatTime(snap.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting stock snapshot: %w", err)
	}
	return nil
}

// UpsertMapping inserts or overwrites the mapping keyed by (account, sku).
func (s *stockStore) UpsertMapping(ctx context.Context, m domain.SKUMapping) error {
	if m.AccountID == "" || m.SKU == "" {
		return fmt.Errorf("%w: mapping needs account and sku", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sku_mappings (account_id, sku, catalog_item_id, variation_id, last_resolved_at, last_error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, sku) DO UPDATE SET
			catalog_item_id = excluded.catalog_item_id,
			variation_id = excluded.variation_id,
			last_resolved_at = excluded.last_resolved_at,
			last_error = excluded.last_error
	`, m.AccountID, m.SKU, m.CatalogItemID, m.VariationID, formatTime(m.LastResolvedAt), m.LastError)
	if err != nil {
		return fmt.Errorf("upserting sku mapping: %w", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot.
func (s *stockStore) GetSnapshot(ctx context.Context, accountID, sku string) (*domain.StockSnapshot, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT account_id, sku, quantity, status, updated_at
		FROM stock_snapshots WHERE account_id = ? AND sku = ?
	`, accountID, sku)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return snap, err
}

// GetMapping retrieves a mapping.
func (s *stockStore) GetMapping(ctx context.Context, accountID, sku string) (*domain.SKUMapping, error) {
	var m domain.SKUMapping
	var resolvedAt string

	err := s.store.db.QueryRowContext(ctx, `
		SELECT account_id, sku, catalog_item_id, variation_id, last_resolved_at, last_error
		FROM sku_mappings WHERE account_id = ? AND sku = ?
	`, accountID, sku).Scan(&m.AccountID, &m.SKU, &m.CatalogItemID, &m.VariationID, &resolvedAt, &m.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sku mapping: %w", err)
	}

	m.LastResolvedAt = parseTime(resolvedAt)
	return &m, nil
}

// ListSnapshots returns all snapshots of an account ordered by SKU.
func (s *stockStore) ListSnapshots(ctx context.Context, accountID string) ([]domain.StockSnapshot, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT account_id, sku, quantity, status, updated_at
		FROM stock_snapshots WHERE account_id = ? ORDER BY sku
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying stock snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []domain.StockSnapshot //nolint:prealloc // size unknown from query
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stock snapshots: %w", err)
	}
	return snaps, nil
}

func scanSnapshot(row rowScanner) (*domain.StockSnapshot, error) {
	var snap domain.StockSnapshot
	var status, updatedAt string

	if err := row.Scan(&snap.AccountID, &snap.SKU, &snap.Quantity, &status, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning stock snapshot: %w", err)
	}

	snap.Status = domain.StockStatus(status)
	snap.UpdatedAt = parseTime(updatedAt)
	return &snap, nil
}
