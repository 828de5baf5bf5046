package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage X API authorisation",
	Long: `Log in to the X API with OAuth 2.0, inspect the stored token, or log out.

The OAuth app is read from X_CLIENT_ID and X_CLIENT_SECRET (environment or
.env file), or from auth.client_id and auth.client_secret in config.toml.
Register http://localhost:8000/callback as the app's redirect URI.

Setting X_ACCESS_TOKEN skips the stored token entirely.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorise xbm in the browser",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

// Flags for auth login.
var authLoginNoBrowser bool

// openBrowser is replaced in tests.
var openBrowser func(url string) error

// SetBrowserOpener registers how login opens the authorisation URL.
func SetBrowserOpener(f func(url string) error) {
	openBrowser = f
}

func init() {
	authLoginCmd.Flags().BoolVar(&authLoginNoBrowser, "no-browser", false, "Print the URL instead of opening a browser")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	open := func(url string) error {
		cmd.Printf("Open this URL to authorise xbm:\n\n  %s\n\n", url)
		if authLoginNoBrowser || openBrowser == nil {
			return nil
		}
		return openBrowser(url)
	}

	cmd.Println("Waiting for authorisation...")
	token, err := app.Auth.Login(ctx, open)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Println(styles.Success.Render("Logged in."))
	printToken(cmd, token)
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	token, err := app.Auth.Status(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("Not logged in. Run 'xbm auth login'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	printToken(cmd, token)
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	if err := app.Auth.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	cmd.Println("Logged out.")
	return nil
}

func printToken(cmd *cobra.Command, token *domain.OAuthToken) {
	expiry := "never"
	if !token.Expiry.IsZero() {
		expiry = token.Expiry.Local().Format(time.RFC1123)
		if token.IsExpired() {
			expiry += " (expired)"
		}
	}
	refresh := "no"
	if token.CanRefresh() {
		refresh = "yes"
	}

	cmd.Println(row("Access token", maskToken(token.AccessToken)))
	cmd.Println(row("Expires", expiry))
	cmd.Println(row("Refreshable", refresh))
	if len(token.Scopes) > 0 {
		cmd.Println(row("Scopes", strings.Join(token.Scopes, " ")))
	}
}

// maskToken shows only the last four characters.
func maskToken(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}
