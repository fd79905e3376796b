package postgres

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
	db *sql.DB
}

var _ driven.StockStore = (*stockStore)(nil)

// UpsertSnapshot inserts or overwrites the snapshot keyed by (account, sku).
func (s *stockStore) UpsertSnapshot(ctx context.Context, snap domain.StockSnapshot) error {
	if snap.AccountID == "" || snap.SKU == "" {
		return fmt.Errorf("%w: snapshot needs account and sku", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_snapshots (account_id, sku, quantity, status, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, sku) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, snap.AccountID, snap.SKU, snap.Quantity, string(snap.Status), snap.UpdatedAt.UTC())
	if err != nil {
		return classify("upserting stock snapshot", err)
	}
	return nil
}

// UpsertMapping inserts or overwrites the mapping keyed by (account, sku).
func (s *stockStore) UpsertMapping(ctx context.Context, m domain.SKUMapping) error {
	if m.AccountID == "" || m.SKU == "" {
		return fmt.Errorf("%w: mapping needs account and sku", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sku_mappings (account_id, sku, catalog_item_id, variation_id, last_resolved_at, last_error)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id, sku) DO UPDATE SET
			catalog_item_id = EXCLUDED.catalog_item_id,
			variation_id = EXCLUDED.variation_id,
			last_resolved_at = EXCLUDED.last_resolved_at,
			last_error = EXCLUDED.last_error
	`, m.AccountID, m.SKU, m.CatalogItemID, m.VariationID, m.LastResolvedAt.UTC(), m.LastError)
	if err != nil {
		return classify("upserting sku mapping", err)
	}
	return nil
}

// GetSnapshot retrieves a snapshot.
func (s *stockStore) GetSnapshot(ctx context.Context, accountID, sku string) (*domain.StockSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT account_id, sku, quantity, status, updated_at
		FROM stock_snapshots WHERE account_id = $1 AND sku = $2
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
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, sku, catalog_item_id, variation_id, last_resolved_at, last_error
		FROM sku_mappings WHERE account_id = $1 AND sku = $2
	`, accountID, sku).Scan(&m.AccountID, &m.SKU, &m.CatalogItemID, &m.VariationID, &m.LastResolvedAt, &m.LastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sku mapping: %w", err)
	}
	m.LastResolvedAt = m.LastResolvedAt.UTC()
	return &m, nil
}

// ListSnapshots returns all snapshots of an account ordered by SKU.
func (s *stockStore) ListSnapshots(ctx context.Context, accountID string) ([]domain.StockSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_id, sku, quantity, status, updated_at
		FROM stock_snapshots WHERE account_id = $1 ORDER BY sku
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
	var status string

	if err := row.Scan(&snap.AccountID, &snap.SKU, &snap.Quantity, &status, &snap.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning stock snapshot: %w", err)
	}
	snap.Status = domain.StockStatus(status)
	snap.UpdatedAt = snap.UpdatedAt.UTC()
	return &snap, nil
}
