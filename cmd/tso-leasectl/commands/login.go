package commands

import (
	"fmt"
	"net/url"
	"time"

	"github.com/marmos91/tso-lease/cmd/tso-leasectl/cmdutil"
	"github.com/marmos91/tso-lease/internal/cli/credentials"
	"github.com/marmos91/tso-lease/internal/cli/prompt"
	"github.com/marmos91/tso-lease/pkg/apiclient"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginUsername string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with a replica's control API",
	Long: `Authenticate with a tso-lease replica's control API and store the
resulting session token.

On first login you must specify the server URL. Subsequent logins reuse
the stored server URL unless overridden.

Examples:
  # First login
  tso-leasectl login --server http://localhost:8080 --username admin

  # Re-login to the stored server
  tso-leasectl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "Replica control API URL (required on first login)")
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Operator username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Operator password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	serverURLStr := loginServer
	if serverURLStr == "" {
		if session, err := store.Current(); err == nil && session.ServerURL != "" {
			serverURLStr = session.ServerURL
		}
	}
	if serverURLStr == "" {
		return fmt.Errorf("no server URL specified and no saved session found\n\n" +
			"Specify a server URL:\n" +
			"  tso-leasectl login --server http://localhost:8080")
	}

	parsedURL, err := url.Parse(serverURLStr)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsedURL.Scheme == "" {
		parsedURL.Scheme = "http"
		serverURLStr = parsedURL.String()
	}

	username := loginUsername
	if username == "" {
		username, err = prompt.InputRequired("Username")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	password := loginPassword
	if password == "" {
		password, err = prompt.Password("Password")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	client := apiclient.New(serverURLStr)

	fmt.Printf("Logging in to %s as %s...\n", serverURLStr, username)
	resp, err := client.Login(username, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	expiresAt, err := resp.ParsedExpiresAt()
	if err != nil {
		expiresAt = time.Now().Add(time.Hour)
	}

	session := &credentials.Session{
		ServerURL: serverURLStr,
		Username:  username,
		Token:     resp.Token,
		ExpiresAt: expiresAt,
	}

	if err := store.Save(session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	fmt.Printf("Logged in successfully as %s\n", username)
	fmt.Printf("Session saved to: %s\n", store.ConfigPath())

	return nil
}
