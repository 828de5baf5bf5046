package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/core/ports/driving"
	"github.com/custodia-labs/xbm/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncService = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates bookmark synchronisation.
//
// Bookmarks are processed strictly in the order the source yields them. Each
// one is validated, its media fetched, rendered and written, and only then is
// the cursor advanced to its id. Once a bookmark fails, later bookmarks are
// still written (when errors are skipped) but the cursor stays behind the
// failure so the next run retries it.
type SyncOrchestrator struct {
	source   driven.BookmarkSource
	state    driven.SyncStateStore
	renderer driven.Renderer
	writer   driven.FileWriter
	media    driven.MediaFetcher
	ledger   driven.RunLedger

	progress driving.ProgressFunc
	now      func() time.Time
	newID    func() string
}

// NewSyncOrchestrator creates a new sync orchestrator.
// media and ledger are optional: without a fetcher attachments stay remote
// links, without a ledger runs are not recorded.
func NewSyncOrchestrator(
	source driven.BookmarkSource,
	state driven.SyncStateStore,
	renderer driven.Renderer,
	writer driven.FileWriter,
	media driven.MediaFetcher,
	ledger driven.RunLedger,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		source:   source,
		state:    state,
		renderer: renderer,
		writer:   writer,
		media:    media,
		ledger:   ledger,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithProgress registers a callback invoked after every bookmark.
func (o *SyncOrchestrator) WithProgress(fn driving.ProgressFunc) *SyncOrchestrator {
	o.progress = fn
	return o
}

// Sync runs one synchronisation.
func (o *SyncOrchestrator) Sync(ctx context.Context, opts domain.SyncOptions) (*domain.SyncSummary, error) {
	opts = opts.WithDefaults()

	summary := &domain.SyncSummary{
		RunID:      o.newID(),
		StartedAt:  o.now(),
		SkipErrors: opts.SkipErrors,
	}

	logger.Section("Sync")
	err := o.run(ctx, opts, summary)
	summary.FinishedAt = o.now()
	if err != nil {
		summary.Aborted = true
		summary.Err = err
		logger.Error("sync aborted after %d bookmarks: %v", summary.Succeeded, err)
	} else {
		logger.Info("sync complete: %d written, %d failed, cursor %q",
			summary.Succeeded, summary.Failed(), summary.LastSyncedID)
	}

	o.record(ctx, summary)
	return summary, err
}

// State returns the stored sync cursor.
func (o *SyncOrchestrator) State(ctx context.Context) (domain.SyncState, error) {
	return o.state.Load(ctx)
}

// History returns up to limit recorded runs, newest first.
func (o *SyncOrchestrator) History(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if o.ledger == nil {
		return nil, nil
	}
	return o.ledger.Recent(ctx, limit)
}

func (o *SyncOrchestrator) run(ctx context.Context, opts domain.SyncOptions, summary *domain.SyncSummary) error {
	state, err := o.state.Load(ctx)
	if err != nil {
		return fmt.Errorf("load sync state: %w", err)
	}
	summary.LastSyncedID = state.LastSyncedID

	cursor := state.LastSyncedID
	if opts.Force {
		logger.Debug("force: ignoring cursor %q", cursor)
		cursor = ""
	}
	summary.StartCursor = cursor
	logger.Info("fetching bookmarks since %q (page size %d)", cursor, opts.PageSize)

	// Cancelling stops the source goroutine when the run aborts early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bookmarks, errs := o.source.FetchSince(ctx, cursor, opts.PageSize)

	// frozen is set by the first failure; the cursor never moves past it.
	frozen := false
	for bookmarks != nil {
		select {
		case <-ctx.Done():
			return abortErr(ctx.Err())

		case b, ok := <-bookmarks:
			if !ok {
				bookmarks = nil
				continue
			}
			if err := ctx.Err(); err != nil {
				return abortErr(err)
			}

			err := o.processOne(ctx, opts, b, !frozen, summary)
			if err != nil {
				if ctx.Err() != nil {
					return abortErr(err)
				}
				summary.Failures = append(summary.Failures, domain.ItemFailure{BookmarkID: b.ID, Reason: err.Error()})
				o.report(b, false)

				if domain.IsFatal(err) || !opts.SkipErrors {
					return err
				}
				logger.Warn("skipping bookmark %q: %v", b.ID, err)
				frozen = true
				continue
			}

			summary.Succeeded++
			if !frozen {
				summary.LastSyncedID = b.ID
			}
			o.report(b, true)
		}
	}

	// The source reports at most one error, after the bookmark channel closes.
	if err, ok := <-errs; ok && err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return abortErr(err)
		}
		return fmt.Errorf("fetch bookmarks: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return abortErr(err)
	}
	return nil
}

// processOne commits a single bookmark. The cursor is saved only when advance is set.
func (o *SyncOrchestrator) processOne(
	ctx context.Context,
	opts domain.SyncOptions,
	b domain.Bookmark,
	advance bool,
	summary *domain.SyncSummary,
) error {
	logger.Debug("processing bookmark %s by @%s", b.ID, b.AuthorUsername)

	if err := b.Validate(); err != nil {
		return err
	}

	localPaths := o.fetchMedia(ctx, opts, b, summary)

	doc, err := o.renderer.RenderWithMedia(b, localPaths)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	path, err := o.renderer.TargetPath(b, opts.OutputDir)
	if err != nil {
		return fmt.Errorf("target path: %w", err)
	}

	if err := o.writer.WriteFile(ctx, path, []byte(doc)); err != nil {
		if ctx.Err() == nil && !errors.Is(err, domain.ErrStorage) {
			err = fmt.Errorf("%w: %w", domain.ErrStorage, err)
		}
		return fmt.Errorf("write markdown: %w", err)
	}

	if advance {
		if err := o.state.Save(ctx, domain.SyncState{LastSyncedID: b.ID}); err != nil {
			return fmt.Errorf("save sync state: %w", err)
		}
	}
	return nil
}

// fetchMedia downloads the bookmark's attachments and returns the local path
// for each one that succeeded, relative to the output directory and keyed by
// its remote URL. Failed downloads keep their remote link.
func (o *SyncOrchestrator) fetchMedia(
	ctx context.Context,
	opts domain.SyncOptions,
	b domain.Bookmark,
	summary *domain.SyncSummary,
) map[string]string {
	if !opts.DownloadMedia || o.media == nil || !b.HasMedia() {
		return nil
	}

	localPaths := make(map[string]string)
	for _, r := range o.media.FetchAll(ctx, opts.MediaDir, b.Media, opts.AllowedMediaTypes) {
		if !r.OK() {
			summary.MediaFailures++
			logger.Warn("media %s of bookmark %s: %v", r.Ref.DownloadURL(), b.ID, r.Err)
			continue
		}
		summary.MediaDownloaded++
		localPaths[r.Ref.DownloadURL()] = linkPath(opts.OutputDir, r.Path)
	}
	return localPaths
}

// linkPath expresses path relative to the markdown directory with forward
// slashes, falling back to the path as given.
func linkPath(outputDir, path string) string {
	rel, err := filepath.Rel(outputDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (o *SyncOrchestrator) report(b domain.Bookmark, ok bool) {
	if o.progress != nil {
		o.progress(b, ok)
	}
}

// record stores the run in the ledger. Ledger failures never fail a run.
func (o *SyncOrchestrator) record(ctx context.Context, summary *domain.SyncSummary) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.Record(context.WithoutCancel(ctx), domain.NewRunRecord(summary)); err != nil {
		logger.Warn("record run %s: %v", summary.RunID, err)
	}
}

func abortErr(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrRunAborted, err)
}
