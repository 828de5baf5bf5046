// Package cli provides the cobra command tree for xbm.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/xbm/internal/core/ports/driving"
	"github.com/custodia-labs/xbm/internal/logger"
)

// DefaultStateDir holds the cursor, token, config and run history.
const DefaultStateDir = ".xbm"

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Global flags.
var (
	verbose  bool
	stateDir string
	logFile  string
)

// App bundles the services a command drives.
type App struct {
	Sync     driving.SyncService
	Auth     driving.AuthService
	Settings driving.SettingsService

	// Close releases resources held by the services. May be nil.
	Close func() error
}

// AppOptions select how an App is assembled.
type AppOptions struct {
	// StateDir is where state, token, config and history live.
	StateDir string

	// DryRun keeps the sync cursor and run history in memory.
	DryRun bool

	// Progress receives per-bookmark progress during a sync.
	Progress driving.ProgressFunc
}

// AppFactory assembles an App.
type AppFactory func(opts AppOptions) (*App, error)

var newApp AppFactory

// SetAppFactory registers the function commands use to build their services.
func SetAppFactory(f AppFactory) {
	newApp = f
}

var rootCmd = &cobra.Command{
	Use:   "xbm",
	Short: "Sync X bookmarks to markdown files",
	Long: `xbm downloads your X (Twitter) bookmarks and writes each one as a
markdown file, optionally with its images and videos.

Runs are incremental: only bookmarks added since the last run are fetched.

Get started:
  xbm auth login
  xbm sync --output-dir ./bookmarks`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())
		return logger.SetLogFile(logFile)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", DefaultStateDir, "Directory for sync state, token, config and history")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openApp builds the services for a command using the global flags.
func openApp(opts AppOptions) (*App, error) {
	if newApp == nil {
		return nil, errors.New("application not configured")
	}
	opts.StateDir = stateDir
	return newApp(opts)
}

// closeApp releases app, logging failures.
func closeApp(app *App) {
	if app == nil || app.Close == nil {
		return
	}
	if err := app.Close(); err != nil {
		logger.Warn("close: %v", err)
	}
}
