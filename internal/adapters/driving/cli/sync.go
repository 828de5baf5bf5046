package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"download"},
	Short:   "Download new bookmarks as markdown",
	Long: `Fetches bookmarks added since the last successful run and writes one
markdown file per bookmark. Attachments are downloaded into the media
directory unless --no-media is given.

Flags override the values in config.toml.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

// Flags for sync.
var (
	syncOutputDir     string
	syncMediaDir      string
	syncPageSize      int
	syncForce         bool
	syncDownloadMedia bool
	syncNoMedia       bool
	syncMediaTypes    string
	syncSkipErrors    bool
	syncTimeout       time.Duration
	syncDryRun        bool
)

func init() {
	f := syncCmd.Flags()
	f.StringVarP(&syncOutputDir, "output-dir", "o", ".", "Directory for markdown files")
	f.StringVar(&syncMediaDir, "media-dir", "", "Directory for attachments (default <output-dir>/media)")
	f.IntVar(&syncPageSize, "page-size", domain.DefaultPageSize, "Bookmarks requested per page (1-100)")
	f.BoolVar(&syncForce, "force", false, "Ignore the saved cursor and fetch every bookmark")
	f.BoolVar(&syncDownloadMedia, "download-media", true, "Download attachments")
	f.BoolVar(&syncNoMedia, "no-media", false, "Do not download attachments")
	f.StringVar(&syncMediaTypes, "media-types", "", "Attachment types to download, comma-separated (photo,video,animated_gif)")
	f.BoolVar(&syncSkipErrors, "skip-errors", false, "Record failed bookmarks and continue")
	f.DurationVar(&syncTimeout, "timeout", 0, "Abort the run after this long (0 disables)")
	f.BoolVar(&syncDryRun, "dry-run", false, "Write files but do not save the cursor or run history")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, syncTimeout)
		defer cancel()
	}

	progress := newSyncProgress(cmd.ErrOrStderr())
	app, err := openApp(AppOptions{DryRun: syncDryRun, Progress: progress.Report})
	if err != nil {
		return err
	}
	defer closeApp(app)

	settings, err := app.Settings.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	opts, err := syncOptions(cmd, settings)
	if err != nil {
		return err
	}

	summary, err := app.Sync.Sync(ctx, opts)
	progress.Finish()
	if summary != nil {
		printSummary(cmd.OutOrStdout(), summary, syncDryRun)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	if summary.ExitCode() != 0 {
		return fmt.Errorf("sync failed: %d bookmarks could not be written", summary.Failed())
	}
	return nil
}

// syncOptions layers explicitly set flags over the configured settings.
func syncOptions(cmd *cobra.Command, settings domain.AppSettings) (domain.SyncOptions, error) {
	opts := settings.SyncOptions()
	flags := cmd.Flags()

	if flags.Changed("output-dir") {
		opts.OutputDir = syncOutputDir
	}
	if flags.Changed("media-dir") {
		opts.MediaDir = syncMediaDir
	}
	if flags.Changed("page-size") {
		if syncPageSize < 1 || syncPageSize > domain.MaxPageSize {
			return opts, fmt.Errorf("%w: --page-size must be between 1 and %d", domain.ErrInvalidInput, domain.MaxPageSize)
		}
		opts.PageSize = syncPageSize
	}
	if flags.Changed("download-media") {
		opts.DownloadMedia = syncDownloadMedia
	}
	if syncNoMedia {
		opts.DownloadMedia = false
	}
	if flags.Changed("media-types") {
		types, err := domain.ParseMediaTypes(splitList(syncMediaTypes))
		if err != nil {
			return opts, err
		}
		opts.AllowedMediaTypes = types
	}
	if flags.Changed("skip-errors") {
		opts.SkipErrors = syncSkipErrors
	}
	opts.Force = syncForce

	return opts, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// printSummary writes the run outcome.
func printSummary(w io.Writer, s *domain.SyncSummary, dryRun bool) {
	title := styles.Success.Render("Sync complete")
	if s.Aborted {
		title = styles.Error.Render("Sync aborted")
	} else if s.Failed() > 0 {
		title = styles.Warning.Render("Sync finished with errors")
	}
	if dryRun {
		title += styles.Muted.Render(" (dry run)")
	}

	cursor := s.LastSyncedID
	if cursor == "" {
		cursor = "(none)"
	}

	lines := []string{
		title,
		row("Written", fmt.Sprintf("%d", s.Succeeded)),
		row("Failed", fmt.Sprintf("%d", s.Failed())),
	}
	if s.MediaDownloaded > 0 || s.MediaFailures > 0 {
		lines = append(lines, row("Media", fmt.Sprintf("%d downloaded, %d failed", s.MediaDownloaded, s.MediaFailures)))
	}
	lines = append(lines,
		row("Cursor", cursor),
		row("Duration", s.Duration().Round(time.Millisecond).String()),
	)
	for _, f := range s.Failures {
		id := f.BookmarkID
		if id == "" {
			id = "(no id)"
		}
		lines = append(lines, styles.Error.Render(fmt.Sprintf("  %s: %s", id, f.Reason)))
	}
	if s.Err != nil {
		lines = append(lines, styles.Error.Render(s.Err.Error()))
	}

	fmt.Fprintln(w, styles.Box.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func row(label, value string) string {
	return styles.Label.Render(label) + value
}
