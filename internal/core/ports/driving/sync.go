package driving

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// SyncService runs bookmark synchronisation.
type SyncService interface {
	// Sync fetches new bookmarks and writes them to disk.
	// The summary is always returned, also when the run aborted; the error is the
	// reason for the abort.
	Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error)

	// State returns the stored sync cursor.
	State(ctx context.Context) (domain.SyncState, error)

	// History returns up to limit recorded runs, newest first.
	// A non-positive limit returns every run.
	History(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// ProgressFunc is called after each bookmark is processed.
// ok is false when the bookmark was not committed.
type ProgressFunc func(b domain.Bookmark, ok bool)
