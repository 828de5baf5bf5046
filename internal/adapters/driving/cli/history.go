package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded sync runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show (0 shows all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	runs, err := app.Sync.History(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		cmd.Println(styles.Title.Render(run.StartedAt.Local().Format(time.DateTime)) + "  " + styles.Muted.Render(run.ID))
		cmd.Println("  " + describeRun(run))
		for _, f := range run.Failures {
			cmd.Println(styles.Error.Render(fmt.Sprintf("    %s: %s", f.BookmarkID, f.Reason)))
		}
	}
	return nil
}

// describeRun summarises a run on one line.
func describeRun(run domain.RunRecord) string {
	outcome := "ok"
	switch {
	case run.Aborted:
		outcome = "aborted"
	case run.Failed() > 0:
		outcome = "partial"
	}

	s := fmt.Sprintf("%s: %d written, %d failed", outcome, run.Succeeded, run.Failed())
	if run.MediaDownloaded > 0 || run.MediaFailures > 0 {
		s += fmt.Sprintf(", %d media (%d failed)", run.MediaDownloaded, run.MediaFailures)
	}
	if run.EndCursor != "" {
		s += ", cursor " + run.EndCursor
	}
	if run.Error != "" {
		s += " - " + run.Error
	}
	return s
}
