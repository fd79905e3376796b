package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// accountStore implements driven.AccountStore.
type accountStore struct {
	store *Store
}

var _ driven.AccountStore = (*accountStore)(nil)

const accountColumns = `id, name, seller_id, refresh_token, access_token, access_expires_at, created_at, updated_at`

// Save stores or updates an account.
func (s *accountStore) Save(ctx context.Context, account domain.Account) error {
	if account.ID == "" {
		return fmt.Errorf("%w: account id is required", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			seller_id = excluded.seller_id,
			refresh_token = excluded.refresh_token,
			access_token = excluded.access_token,
			access_expires_at = excluded.access_expires_at,
			updated_at = excluded.updated_at
	`, account.ID, account.Name, account.SellerID, account.RefreshToken, account.AccessToken,
		formatNullableTime(account.AccessExpiresAt),
		formatTime(account.CreatedAt), formatTime(account.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving account: %w", err)
	}
	return nil
}

// Get retrieves an account by ID.
func (s *accountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// List returns all accounts ordered by name.
func (s *accountStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.store.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account //nolint:prealloc // size unknown from query
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// UpdateTokens writes rotated tokens without touching other columns.
func (s *accountStore) UpdateTokens(ctx context.Context, accountID string, tokens domain.AccountTokens) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE accounts
		SET access_token = ?, refresh_token = ?, access_expires_at = ?, updated_at = ?
		WHERE id = ?
	`, tokens.AccessToken, tokens.RefreshToken, formatNullableTime(tokens.AccessExpiresAt),
		formatTime(tokens.UpdatedAt), accountID)
	if err != nil {
		return fmt.Errorf("updating account tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating account tokens: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var expiresAt sql.NullString
	var createdAt, updatedAt string

	if err := row.Scan(&a.ID, &a.Name, &a.SellerID, &a.RefreshToken, &a.AccessToken,
		&expiresAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.AccessExpiresAt = parseNullableTime(expiresAt)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
