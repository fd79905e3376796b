package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/ports/driven"
	"github.com/custodia-labs/marketsync/internal/core/ports/driving"
	"github.com/custodia-labs/marketsync/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync scheduler in the foreground",
	Long: `Starts the scheduler, which runs a stock sync and an order sync for every
account at the configured intervals. Changes to the config file are picked up
without a restart. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if err := settingsService.Validate(settings); err != nil {
		return err
	}
	if !settings.Sync.SchedulerEnabled {
		cmd.Println("Scheduler is disabled (sync.scheduler_enabled = false).")
		return nil
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configWatcher != nil {
		go watchConfig(ctx, configWatcher, settingsService, scheduler)
	}

	cmd.Printf("Scheduler started (stock every %s, orders every %s). Press Ctrl+C to stop.\n",
		settings.Sync.StockInterval, settings.Sync.OrderInterval)

	err = scheduler.Start(ctx)
	if stopErr := scheduler.Stop(); stopErr != nil {
		logger.Warn("scheduler stop: %v", stopErr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("scheduler: %w", err)
	}

	cmd.Println("Scheduler stopped.")
	return nil
}

// watchConfig reapplies scheduler intervals whenever the config changes.
func watchConfig(
	ctx context.Context,
	watcher driven.ConfigWatcher,
	settingsSvc driving.SettingsService,
	sched driving.Scheduler,
) {
	err := watcher.Watch(ctx, func() {
		settings, err := settingsSvc.Get()
		if err != nil {
			logger.Warn("config changed but settings could not be read: %v", err)
			return
		}
		if err := settingsSvc.Validate(settings); err != nil {
			logger.Warn("config changed but is invalid, keeping current schedule: %v", err)
			return
		}
		if err := sched.Reload(ctx, settings.SchedulerConfig()); err != nil {
			logger.Warn("scheduler reload: %v", err)
		}
	})
	if err != nil {
		logger.Warn("config watching disabled: %v", err)
	}
}
