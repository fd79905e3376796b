package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what has been synchronised per account",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	ctx := cmd.Context()
	accounts, err := accountStore.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		cmd.Println("No accounts connected.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tSKUS\tORDERS\tORDERS SYNCED UNTIL\tSTATE")
	for i := range accounts {
		a := &accounts[i]

		skus := "-"
		if stockStore != nil {
			if snapshots, err := stockStore.ListSnapshots(ctx, a.ID); err == nil {
				skus = fmt.Sprint(len(snapshots))
			}
		}

		orders := "-"
		if orderStore != nil {
			if n, err := orderStore.CountOrders(ctx, a.ID); err == nil {
				orders = fmt.Sprint(n)
			}
		}

		until := "never"
		if cursorStore != nil {
			cursor, err := cursorStore.Get(ctx, domain.OrdersJobName(a.ID))
			if err == nil {
				until = cursor.LastProcessedAt.Format(time.RFC3339)
			}
		}

		state := "idle"
		if syncOrchestrator != nil {
			if s, err := syncOrchestrator.Status(ctx, a.ID); err == nil && s != nil {
				switch {
				case s.Running:
					state = fmt.Sprintf("syncing %s", s.Kind)
				case s.LastError != "":
					state = "error: " + s.LastError
				}
			}
		}

		fmt.Fprintf(w, "%s (%s)\t%s\t%s\t%s\t%s\n", a.Name, a.ID, skus, orders, until, state)
	}
	return w.Flush()
}
