package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [stock|orders|all] [account-id]",
	Short: "Synchronise stock and orders from the marketplace",
	Long: `Runs a sync immediately instead of waiting for the scheduler.

The first argument selects what to sync and defaults to "all". If an account
ID is given only that account is synchronised, otherwise every connected
account is synchronised concurrently.`,
	Args:      cobra.MaximumNArgs(2),
	ValidArgs: []string{string(domain.SyncKindStock), string(domain.SyncKindOrders), string(domain.SyncKindAll)},
	RunE:      runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	kind := domain.SyncKindAll
	if len(args) > 0 {
		kind = domain.SyncKind(args[0])
		if !kind.IsValid() {
			return fmt.Errorf("unknown sync kind %q (want stock, orders or all)", args[0])
		}
	}

	ctx := cmd.Context()

	if len(args) > 1 {
		accountID := args[1]
		cmd.Printf("Synchronising %s for account %s...\n", kind, accountID)

		err := syncWithProgress(ctx, cmd, syncOrchestrator, accountID, kind)
		printSyncReport(ctx, cmd, accountID)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		cmd.Printf("Account %s synchronised successfully.\n", accountID)
		return nil
	}

	cmd.Printf("Synchronising %s for all accounts...\n", kind)

	if err := syncOrchestrator.SyncAll(ctx, kind); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Println("All accounts synchronised successfully.")
	return nil
}

// syncWithProgress runs sync while reporting that it is still running.
func syncWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	syncOrch driving.SyncOrchestrator,
	accountID string,
	kind domain.SyncKind,
) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- syncOrch.Sync(ctx, accountID, kind)
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	started := time.Now()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			cmd.Printf("Still running (%s elapsed)...\n", time.Since(started).Round(time.Second))
		}
	}
}

// printSyncReport prints the last reports of an account, best effort.
func printSyncReport(ctx context.Context, cmd *cobra.Command, accountID string) {
	status, err := syncOrchestrator.Status(ctx, accountID)
	if err != nil || status == nil {
		return
	}
	if r := status.Stock; r != nil {
		cmd.Printf("  Stock:  %d items on %d pages, %d SKUs upserted, %d skipped\n",
			r.Items, r.Pages, r.Upserted, r.Skipped)
	}
	if r := status.Orders; r != nil {
		cmd.Printf("  Orders: %d orders, %d items since %s\n",
			r.Orders, r.Items, r.From.Format(time.RFC3339))
	}
}
