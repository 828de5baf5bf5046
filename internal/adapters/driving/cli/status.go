package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync cursor and the latest run",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	app, err := openApp(AppOptions{})
	if err != nil {
		return err
	}
	defer closeApp(app)

	state, err := app.Sync.State(cmd.Context())
	if err != nil {
		return fmt.Errorf("load sync state: %w", err)
	}

	cursor := state.LastSyncedID
	if state.IsEmpty() {
		cursor = "(none, next sync fetches everything)"
	}
	cmd.Println(row("Cursor", cursor))

	runs, err := app.Sync.History(cmd.Context(), 1)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if len(runs) == 0 {
		cmd.Println(row("Last run", "never"))
		return nil
	}
	cmd.Println(row("Last run", describeRun(runs[0])))
	return nil
}
