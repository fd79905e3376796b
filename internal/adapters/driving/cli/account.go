package cli

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marketsync/internal/core/domain"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage connected marketplace accounts",
}

var accountAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Connect a seller account",
	Long: `Stores a seller account together with the refresh token obtained when the
seller authorised the application. The first sync exchanges the refresh token
for an access token.

If --refresh-token is omitted the token is read from the terminal without
echo.`,
	Args: cobra.NoArgs,
	RunE: runAccountAdd,
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected accounts",
	Args:  cobra.NoArgs,
	RunE:  runAccountList,
}

var accountShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show account details and token state",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountShow,
}

var (
	accountName         string
	accountSellerID     string
	accountRefreshToken string
)

// accountValidator checks accounts before they are stored.
var accountValidator = validator.New()

// readSecret reads a secret from the terminal. Replaced in tests.
var readSecret = readPassword

func init() {
	accountAddCmd.Flags().StringVar(&accountName, "name", "", "display name for the account")
	accountAddCmd.Flags().StringVar(&accountSellerID, "seller-id", "", "marketplace seller ID")
	accountAddCmd.Flags().StringVar(&accountRefreshToken, "refresh-token", "", "OAuth refresh token")

	accountCmd.AddCommand(accountAddCmd)
	accountCmd.AddCommand(accountListCmd)
	accountCmd.AddCommand(accountShowCmd)
	rootCmd.AddCommand(accountCmd)
}

func runAccountAdd(cmd *cobra.Command, _ []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	refreshToken := accountRefreshToken
	if refreshToken == "" {
		cmd.Print("Refresh token: ")
		refreshToken = readSecret()
		cmd.Println()
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(accountName),
		SellerID:     strings.TrimSpace(accountSellerID),
		RefreshToken: strings.TrimSpace(refreshToken),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := accountValidator.Struct(account); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
			return fmt.Errorf("%w: missing %s", domain.ErrInvalidInput, strings.Join(fields, ", "))
		}
		return err
	}

	if err := accountStore.Save(cmd.Context(), account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	cmd.Printf("Account %q added with ID %s\n", account.Name, account.ID)
	return nil
}

func runAccountList(cmd *cobra.Command, _ []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	accounts, err := accountStore.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		cmd.Println("No accounts connected. Add one with 'marketsync account add'.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSELLER\tTOKEN")
	for i := range accounts {
		a := &accounts[i]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, a.SellerID, tokenState(a, time.Now()))
	}
	return w.Flush()
}

func runAccountShow(cmd *cobra.Command, args []string) error {
	if accountStore == nil {
		return errors.New("account store not configured")
	}

	account, err := accountStore.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("account not found: %s", args[0])
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	cmd.Printf("ID:            %s\n", account.ID)
	cmd.Printf("Name:          %s\n", account.Name)
	cmd.Printf("Seller ID:     %s\n", account.SellerID)
	cmd.Printf("Refresh token: %s\n", maskSecret(account.RefreshToken))
	if account.AccessToken != "" {
		cmd.Printf("Access token:  %s\n", maskSecret(account.AccessToken))
		cmd.Printf("Expires at:    %s\n", account.AccessExpiresAt.Format(time.RFC3339))
	}
	cmd.Printf("Token state:   %s\n", tokenState(account, time.Now()))
	cmd.Printf("Created:       %s\n", account.CreatedAt.Format(time.RFC3339))
	cmd.Printf("Updated:       %s\n", account.UpdatedAt.Format(time.RFC3339))
	return nil
}

// tokenState describes whether the next sync will need a refresh.
func tokenState(a *domain.Account, now time.Time) string {
	switch {
	case a.AccessToken == "":
		return "not yet issued"
	case a.HasValidAccessToken(now):
		return "valid"
	default:
		return "expired"
	}
}
