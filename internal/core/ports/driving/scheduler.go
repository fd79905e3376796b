package driving

import (
	"context"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

// Scheduler manages the periodic stock and order sync tasks.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or an error occurs.
	Start(ctx context.Context) error

	// Stop gracefully stops all running tasks.
	Stop() error

	// Reload applies new task intervals without restarting.
	Reload(ctx context.Context, config domain.SchedulerConfig) error
}
