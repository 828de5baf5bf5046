package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"settings"},
	Short:   "View and change settings",
	Long: `Settings live in config.toml inside the state directory.

Values are resolved as: command-line flags, then environment (X_CLIENT_ID,
X_CLIENT_SECRET), then config.toml, then built-in defaults.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in config.toml",
	Long: `Store a setting in config.toml.

Keys:
  ` + strings.Join(domain.SettingKeys, "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println(styles.Title.Render("[sync]"))
	cmd.Println(row("Output dir", settings.Sync.OutputDir))
	cmd.Println(row("Media dir", orDefault(settings.Sync.MediaDir, "<output>/"+domain.DefaultMediaDirName)))
	cmd.Println(row("Page size", fmt.Sprint(settings.Sync.PageSize)))
	cmd.Println(row("Media", yesNo(settings.Sync.DownloadMedia)))
	cmd.Println(row("Media types", orDefault(joinMediaTypes(settings.Sync.MediaTypes), "all")))
	cmd.Println(row("Skip errors", yesNo(settings.Sync.SkipErrors)))
	cmd.Println()

	cmd.Println(styles.Title.Render("[media]"))
	cmd.Println(row("Retries", fmt.Sprint(settings.Media.MaxRetries)))
	cmd.Println(row("Concurrency", fmt.Sprint(settings.Media.Concurrency)))
	cmd.Println(row("Timeout", settings.Media.Timeout.String()))
	cmd.Println()

	cmd.Println(styles.Title.Render("[api]"))
	cmd.Println(row("Base URL", orDefault(settings.API.BaseURL, "(default)")))
	cmd.Println(row("Link base", orDefault(settings.Render.BaseURL, "(default)")))
	cmd.Println()

	cmd.Println(styles.Title.Render("[auth]"))
	cmd.Println(row("Client ID", orDefault(settings.Auth.ClientID, "(not set)")))
	secret := "(not set)"
	if settings.Auth.ClientSecret != "" {
		secret = maskToken(settings.Auth.ClientSecret)
	}
	cmd.Println(row("Secret", secret))
	cmd.Println(row("Redirect", fmt.Sprintf("http://localhost:%d/callback", settings.Auth.RedirectPort)))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	key, value := args[0], args[1]
	if err := app.Settings.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	cmd.Println(app.Settings.Path())
	return nil
}

func joinMediaTypes(types []domain.MediaType) string {
	s := make([]string, len(types))
	for i, t := range types {
		s[i] = string(t)
	}
	return strings.Join(s, ",")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
