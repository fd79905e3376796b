package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// orderStore implements driven.OrderStore.
type orderStore struct {
	store *Store
}

var _ driven.OrderStore = (*orderStore)(nil)

// UpsertOrder inserts or overwrites the order keyed by (account, order id).
func (s *orderStore) UpsertOrder(ctx context.Context, o domain.Order) error {
	if o.AccountID == "" || o.OrderID == "" {
		return fmt.Errorf("%w: order needs account and order id", domain.ErrInvalidInput)
	}

	var paid any
	if o.PaidAmount != nil {
		paid = *o.PaidAmount
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO orders (account_id, order_id, status, date_created, total_amount, paid_amount,
			buyer_id, shipment_id, raw_payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, order_id) DO UPDATE SET
			status = excluded.status,
			date_created = excluded.date_created,
			total_amount = excluded.total_amount,
			paid_amount = excluded.paid_amount,
			buyer_id = excluded.buyer_id,
			shipment_id = excluded.shipment_id,
			raw_payload = excluded.raw_payload,
			updated_at = excluded.updated_at
	`, o.AccountID, o.OrderID, o.Status, formatTime(o.DateCreated), o.TotalAmount, paid,
		o.BuyerID, o.ShipmentID, o.RawPayload, formatTime(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upserting order: %w", err)
	}
	return nil
}

// ReplaceItems swaps the full item set of an order in one transaction.
func (s *orderStore) ReplaceItems(ctx context.Context, accountID, orderID string, items []domain.OrderItem) error {
	if accountID == "" || orderID == "" {
		return fmt.Errorf("%w: items need account and order id", domain.ErrInvalidInput)
	}

	return s.store.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM order_items WHERE account_id = ? AND order_id = ?", accountID, orderID); err != nil {
			return fmt.Errorf("deleting order items: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_items (account_id, order_id, position, sku, catalog_item_id, variation_id,
				title, quantity, unit_price, discount, raw_payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer stmt.Close()

		for i, it := range items {
			if _, err := stmt.ExecContext(ctx, accountID, orderID, i, it.SKU, it.CatalogItemID, it.VariationID,
				it.Title, it.Quantity, it.UnitPrice, it.Discount, it.RawPayload); err != nil {
				return fmt.Errorf("inserting order item %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetOrder retrieves an order.
func (s *orderStore) GetOrder(ctx context.Context, accountID, orderID string) (*domain.Order, error) {
	var o domain.Order
	var dateCreated, updatedAt string
	var paid sql.NullFloat64

	err := s.store.db.QueryRowContext(ctx, `
		SELECT account_id, order_id, status, date_created, total_amount, paid_amount,
			buyer_id, shipment_id, raw_payload, updated_at
		FROM orders WHERE account_id = ? AND order_id = ?
	`, accountID, orderID).Scan(&o.AccountID, &o.OrderID, &o.Status, &dateCreated, &o.TotalAmount, &paid,
		&o.BuyerID, &o.ShipmentID, &o.RawPayload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning order: %w", err)
	}

	o.DateCreated = parseTime(dateCreated)
	o.UpdatedAt = parseTime(updatedAt)
	if paid.Valid {
		v := paid.Float64
		o.PaidAmount = &v
	}
	return &o, nil
}

// ListItems returns the items of an order in insertion order.
func (s *orderStore) ListItems(ctx context.Context, accountID, orderID string) ([]domain.OrderItem, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT account_id, order_id, sku, catalog_item_id, variation_id, title, quantity,
			unit_price, discount, raw_payload
		FROM order_items WHERE account_id = ? AND order_id = ?
		ORDER BY position
	`, accountID, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.AccountID, &it.OrderID, &it.SKU, &it.CatalogItemID, &it.VariationID,
			&it.Title, &it.Quantity, &it.UnitPrice, &it.Discount, &it.RawPayload); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}

// CountOrders returns the number of orders stored for an account.
func (s *orderStore) CountOrders(ctx context.Context, accountID string) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM orders WHERE account_id = ?", accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}
