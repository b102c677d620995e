package commands

import (
	"fmt"

	"github.com/marmos91/tso-lease/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored session token",
	Long: `Clear the stored session token.

This removes the access token but keeps the server URL for easy
re-login.

Examples:
  tso-leasectl logout`,
	RunE: runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	if _, err := store.Current(); err != nil {
		return fmt.Errorf("not logged in")
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Println("Logged out")
	return nil
}
