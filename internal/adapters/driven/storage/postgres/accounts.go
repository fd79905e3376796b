package postgres

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
	db *sql.DB
}

var _ driven.AccountStore = (*accountStore)(nil)

const accountColumns = `id, name, seller_id, refresh_token, access_token, access_expires_at, created_at, updated_at`

// Save stores or updates an account.
func (s *accountStore) Save(ctx context.Context, a domain.Account) error {
	if a.ID == "" {
		return fmt.Errorf("%w: account id is required", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			seller_id = EXCLUDED.seller_id,
			refresh_token = EXCLUDED.refresh_token,
			access_token = EXCLUDED.access_token,
			access_expires_at = EXCLUDED.access_expires_at,
			updated_at = EXCLUDED.updated_at
	`, a.ID, a.Name, a.SellerID, a.RefreshToken, a.AccessToken, nullTime(a.AccessExpiresAt),
		a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return classify("saving account", err)
	}
	return nil
}

// Get retrieves an account by ID.
func (s *accountStore) Get(ctx context.Context, id string) (*domain.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return a, err
}

// List returns all accounts ordered by name.
func (s *accountStore) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account //nolint:prealloc // size unknown from query
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}
	return accounts, nil
}

// UpdateTokens writes rotated tokens without touching other columns.
func (s *accountStore) UpdateTokens(ctx context.Context, accountID string, t domain.AccountTokens) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET access_token = $1, refresh_token = $2, access_expires_at = $3, updated_at = $4
		WHERE id = $5
	`, t.AccessToken, t.RefreshToken, nullTime(t.AccessExpiresAt), t.UpdatedAt.UTC(), accountID)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	var expiresAt sql.NullTime

	if err := row.Scan(&a.ID, &a.Name, &a.SellerID, &a.RefreshToken, &a.AccessToken,
		&expiresAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning account: %w", err)
	}

	a.AccessExpiresAt = fromNullTime(expiresAt)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
