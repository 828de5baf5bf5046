package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/logger"
)

// syncProgress shows a spinner with a running count while a sync runs.
// It is silent unless w is a terminal and verbose logging is off.
type syncProgress struct {
	bar    *progressbar.ProgressBar
	failed int
}

func newSyncProgress(w io.Writer) *syncProgress {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || logger.IsVerbose() {
		return &syncProgress{}
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Syncing bookmarks"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &syncProgress{bar: bar}
}

// Report records one processed bookmark.
func (p *syncProgress) Report(_ domain.Bookmark, ok bool) {
	if p.bar == nil {
		return
	}
	if !ok {
		p.failed++
		p.bar.Describe(fmt.Sprintf("Syncing bookmarks (%d failed)", p.failed))
	}
	_ = p.bar.Add(1)
}

// Finish clears the spinner.
func (p *syncProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
