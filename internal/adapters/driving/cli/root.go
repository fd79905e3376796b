// Package cli implements the marketsync command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// verbose enables debug logging.
var verbose bool

// Services holds the dependencies the commands operate on.
// Any field may be nil; commands that need it report it as not configured.
type Services struct {
	SyncOrchestrator driving.SyncOrchestrator
	SettingsService  driving.SettingsService
	Scheduler        driving.Scheduler
	Accounts         driven.AccountStore
	Stock            driven.StockStore
	Orders           driven.OrderStore
	Cursors          driven.CursorStore
	ConfigWatcher    driven.ConfigWatcher
}

var (
	syncOrchestrator driving.SyncOrchestrator
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler
	accountStore     driven.AccountStore
	stockStore       driven.StockStore
	orderStore       driven.OrderStore
	cursorStore      driven.CursorStore
	configWatcher    driven.ConfigWatcher
)

var rootCmd = &cobra.Command{
	Use:   "marketsync",
	Short: "Marketplace stock and order synchronisation",
	Long: `marketsync keeps a local copy of marketplace seller data up to date.

It resyncs the stock of every SKU in each connected account's catalog and
pulls new orders incrementally, refreshing OAuth access tokens as needed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices installs the dependencies used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	syncOrchestrator = s.SyncOrchestrator
	settingsService = s.SettingsService
	scheduler = s.Scheduler
	accountStore = s.Accounts
	stockStore = s.Stock
	orderStore = s.Orders
	cursorStore = s.Cursors
	configWatcher = s.ConfigWatcher
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
