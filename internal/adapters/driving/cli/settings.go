package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in the config file.

Environment variables (MARKETSYNC_CLIENT_ID, MARKETSYNC_STORAGE_DSN, ...) take
precedence over stored values and are reflected in 'settings show'.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Long: `Stores a single setting, e.g.

  marketsync settings set sync.order_interval 5m
  marketsync settings set storage.driver postgres

Run 'marketsync settings keys' for the list of keys.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	m := settings.Marketplace
	cmd.Println("[Marketplace]")
	cmd.Printf("  Base URL: %s\n", m.BaseURL)
	cmd.Printf("  Token URL: %s\n", m.TokenURL)
	cmd.Printf("  Client ID: %s\n", orNotSet(m.ClientID))
	cmd.Printf("  Client secret: %s\n", maskOrNotSet(m.ClientSecret))
	cmd.Printf("  Page size: %d (orders: %d)\n", m.PageSize, m.OrderPageSize)
	cmd.Printf("  Request timeout: %s\n", m.RequestTimeout)
	cmd.Printf("  Rate limit: %g req/s, %d retries\n", m.RequestsPerSecond, m.MaxRetries)
	cmd.Println()

	s := settings.Sync
	cmd.Println("[Sync]")
	cmd.Printf("  Run deadline: %s\n", s.RunDeadline)
	cmd.Printf("  Order lookback: %s\n", s.OrderLookback)
	cmd.Printf("  Stock interval: %s\n", s.StockInterval)
	cmd.Printf("  Order interval: %s\n", s.OrderInterval)
	cmd.Printf("  Scheduler: %s\n", enabledString(s.SchedulerEnabled))
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Driver: %s\n", settings.Storage.Driver)
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	if settings.Storage.DSN != "" {
		cmd.Printf("  DSN: %s\n", maskSecret(settings.Storage.DSN))
	}
	cmd.Println()

	cmd.Println("[Lock]")
	cmd.Printf("  Driver: %s\n", settings.Lock.Driver)
	if settings.Lock.RedisAddr != "" {
		cmd.Printf("  Redis: %s (db %d)\n", settings.Lock.RedisAddr, settings.Lock.RedisDB)
	}
	cmd.Printf("  TTL: %s\n", settings.Lock.TTL)
	cmd.Println()

	if err := settingsService.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'marketsync settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}

	cmd.Printf("Set %s.\n", args[0])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func enabledString(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func orNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func maskOrNotSet(s string) string {
	if s == "" {
		return "(not set)"
	}
	return maskSecret(s)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskSecret(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
