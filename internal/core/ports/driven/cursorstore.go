package driven

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// CursorStore persists per-job watermarks for incremental sync.
type CursorStore interface {
	// Get retrieves the cursor of a job.
	// Returns domain.ErrNotFound on the job's first run.
	Get(ctx context.Context, jobName string) (*domain.SyncCursor, error)

	// Save stores or updates a cursor. A stored watermark never moves
	// backwards: saving an earlier LastProcessedAt only touches UpdatedAt.
	Save(ctx context.Context, cursor domain.SyncCursor) error

	// Delete removes a cursor so the job starts from its default window.
	Delete(ctx context.Context, jobName string) error
}
