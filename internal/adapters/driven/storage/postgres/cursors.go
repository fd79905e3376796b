package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
)

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	db *sql.DB
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get retrieves the cursor of a job.
func (s *cursorStore) Get(ctx context.Context, jobName string) (*domain.SyncCursor, error) {
	var c domain.SyncCursor
	err := s.db.QueryRowContext(ctx, `
		SELECT job_name, last_processed_at, updated_at FROM sync_cursors WHERE job_name = $1
	`, jobName).Scan(&c.JobName, &c.LastProcessedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync cursor: %w", err)
	}
	c.LastProcessedAt = c.LastProcessedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

// Save stores or advances a cursor. The stored watermark keeps the later of
// the existing and the new value.
func (s *cursorStore) Save(ctx context.Context, c domain.SyncCursor) error {
	if c.JobName == "" {
		return fmt.Errorf("%w: cursor job name is required", domain.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_cursors (job_name, last_processed_at, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE SET
			last_processed_at = GREATEST(sync_cursors.last_processed_at, EXCLUDED.last_processed_at),
			updated_at = EXCLUDED.updated_at
	`, c.JobName, c.LastProcessedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving sync cursor: %w", err)
	}
	return nil
}

// Delete removes a cursor.
func (s *cursorStore) Delete(ctx context.Context, jobName string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sync_cursors WHERE job_name = $1", jobName); err != nil {
		return fmt.Errorf("deleting sync cursor: %w", err)
	}
	return nil
}
