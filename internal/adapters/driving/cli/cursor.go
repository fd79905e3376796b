package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

var cursorCmd = &cobra.Command{
	Use:   "cursor",
	Short: "Inspect or reset order sync cursors",
	Long: `Each account's order sync remembers the creation date of the newest order it
stored. The next run searches from that point on.`,
}

var cursorShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show the order sync cursor of an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runCursorShow,
}

var cursorResetCmd = &cobra.Command{
	Use:   "reset <account-id>",
	Short: "Reset the order sync cursor of an account",
	Long: `Deletes the cursor so the next order sync searches the default lookback
window again. Orders already stored are overwritten, not duplicated.`,
	Args: cobra.ExactArgs(1),
	RunE: runCursorReset,
}

func init() {
	cursorCmd.AddCommand(cursorShowCmd)
	cursorCmd.AddCommand(cursorResetCmd)
	rootCmd.AddCommand(cursorCmd)
}

func runCursorShow(cmd *cobra.Command, args []string) error {
	if cursorStore == nil {
		return errors.New("cursor store not configured")
	}

	jobName := domain.OrdersJobName(args[0])
	cursor, err := cursorStore.Get(cmd.Context(), jobName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			cmd.Printf("No cursor for %s; the next order sync uses the default lookback window.\n", jobName)
			return nil
		}
		return fmt.Errorf("failed to get cursor: %w", err)
	}

	cmd.Printf("Job:               %s\n", cursor.JobName)
	cmd.Printf("Last processed at: %s\n", cursor.LastProcessedAt.Format(time.RFC3339Nano))
	cmd.Printf("Updated at:        %s\n", cursor.UpdatedAt.Format(time.RFC3339))
	return nil
}

func runCursorReset(cmd *cobra.Command, args []string) error {
	if cursorStore == nil {
		return errors.New("cursor store not configured")
	}

	jobName := domain.OrdersJobName(args[0])
	if err := cursorStore.Delete(cmd.Context(), jobName); err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}

	cmd.Printf("Cursor %s reset.\n", jobName)
	return nil
}
