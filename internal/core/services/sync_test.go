package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storagefile "github.com/custodia-labs/xbm/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/xbm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/renderers/markdown"
)

// --- Test doubles ---

// syncMockSource yields items oldest first, skipping everything up to and
// including the cursor, then sends err if set.
type syncMockSource struct {
	items []domain.Bookmark
	err   error

	mu      stdsync.Mutex
	cursors []string
}

func (m *syncMockSource) FetchSince(ctx context.Context, cursor string, _ int) (<-chan domain.Bookmark, <-chan error) {
	m.mu.Lock()
	m.cursors = append(m.cursors, cursor)
	m.mu.Unlock()

	bookmarks := make(chan domain.Bookmark)
	errs := make(chan error, 1)

	go func() {
		defer close(bookmarks)
		defer close(errs)

		start := 0
		for i, b := range m.items {
			if cursor != "" && b.ID == cursor {
				start = i + 1
			}
		}
		for _, b := range m.items[start:] {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case bookmarks <- b:
			}
		}
		if m.err != nil {
			errs <- m.err
		}
	}()

	return bookmarks, errs
}

func (m *syncMockSource) lastCursor() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursors[len(m.cursors)-1]
}

// syncMockWriter keeps written documents in memory.
type syncMockWriter struct {
	mu     stdsync.Mutex
	files  map[string]string
	failOn map[string]error
}

func newSyncMockWriter() *syncMockWriter {
	return &syncMockWriter{files: make(map[string]string), failOn: make(map[string]error)}
}

func (w *syncMockWriter) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, err := range w.failOn {
		if strings.HasSuffix(path, "-"+id+".md") {
			return err
		}
	}
	w.files[path] = string(data)
	return nil
}

// ids returns the bookmark ids that have a file, sorted.
func (w *syncMockWriter) ids() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ids []string
	for path := range w.files {
		base := strings.TrimSuffix(filepath.Base(path), ".md")
		ids = append(ids, base[strings.LastIndex(base, "-")+1:])
	}
	sort.Strings(ids)
	return ids
}

func (w *syncMockWriter) content(id string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, data := range w.files {
		if strings.HasSuffix(path, "-"+id+".md") {
			return data
		}
	}
	return ""
}

// syncMockMedia fails every ref whose URL is in fail.
type syncMockMedia struct {
	fail    map[string]bool
	dirs    []string
	allowed [][]domain.MediaType
}

func (m *syncMockMedia) FetchAll(_ context.Context, dir string, refs []domain.MediaRef, allowed []domain.MediaType) []domain.MediaResult {
	m.dirs = append(m.dirs, dir)
	m.allowed = append(m.allowed, allowed)

	var results []domain.MediaResult
	for _, ref := range refs {
		if !ref.AllowedBy(allowed) {
			continue
		}
		if m.fail[ref.DownloadURL()] {
			results = append(results, domain.MediaResult{Ref: ref, Attempts: 3, Err: domain.ErrMediaDownload})
			continue
		}
		name := filepath.Base(ref.DownloadURL())
		results = append(results, domain.MediaResult{Ref: ref, Path: filepath.Join(dir, name), Attempts: 1})
	}
	return results
}

type syncFailingLedger struct{ memory.RunLedger }

func (l *syncFailingLedger) Record(context.Context, domain.RunRecord) error {
	return errors.New("disk full")
}

// --- Helpers ---

func syncBookmark(id string) domain.Bookmark {
	n := len(id)
	return domain.Bookmark{
		ID:             id,
		Text:           "bookmark " + id,
		AuthorUsername: "author",
		CreatedAt:      time.Date(2024, 1, 1, 12, 0, n, 0, time.UTC),
	}
}

func syncBookmarks(ids ...string) []domain.Bookmark {
	out := make([]domain.Bookmark, 0, len(ids))
	for _, id := range ids {
		out = append(out, syncBookmark(id))
	}
	return out
}

type syncFixture struct {
	source *syncMockSource
	state  *memory.SyncStateStore
	writer *syncMockWriter
	media  *syncMockMedia
	ledger *memory.RunLedger
	orch   *SyncOrchestrator
}

func newSyncFixture(items []domain.Bookmark, cursor string) *syncFixture {
	f := &syncFixture{
		source: &syncMockSource{items: items},
		state:  memory.NewSyncStateStore(domain.SyncState{LastSyncedID: cursor}),
		writer: newSyncMockWriter(),
		media:  &syncMockMedia{fail: map[string]bool{}},
		ledger: memory.NewRunLedger(),
	}
	f.orch = NewSyncOrchestrator(f.source, f.state, markdown.New(""), f.writer, f.media, f.ledger)
	f.orch.newID = func() string { return "run-1" }
	return f
}

func (f *syncFixture) cursor(t *testing.T) string {
	t.Helper()
	state, err := f.orch.State(context.Background())
	require.NoError(t, err)
	return state.LastSyncedID
}

var syncOpts = domain.SyncOptions{OutputDir: "out"}

// --- Tests ---

func TestSyncOrchestrator_FirstRun(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2", "3"), "")

	summary, err := f.orch.Sync(context.Background(), syncOpts)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Empty(t, summary.Failures)
	assert.False(t, summary.Aborted)
	assert.Equal(t, "3", summary.LastSyncedID)
	assert.Equal(t, 0, summary.ExitCode())
	assert.Equal(t, []string{"1", "2", "3"}, f.writer.ids())
	assert.Equal(t, "3", f.cursor(t))
	assert.Equal(t, []string{"1", "2", "3"}, f.state.History(), "cursor saved after every bookmark")
	assert.Equal(t, "", f.source.lastCursor())
}

func TestSyncOrchestrator_WritesRenderedMarkdown(t *testing.T) {
	b := domain.Bookmark{
		ID:             "42",
		Text:           "hello @bob",
		AuthorUsername: "alice",
		CreatedAt:      time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	f := newSyncFixture([]domain.Bookmark{b}, "")

	_, err := f.orch.Sync(context.Background(), syncOpts)
	require.NoError(t, err)

	want, err := markdown.New("").Render(b)
	require.NoError(t, err)
	assert.Equal(t, want, f.writer.files[filepath.Join("out", "20240301-093000-alice-42.md")])
}

func TestSyncOrchestrator_Idempotent(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2"), "")
	ctx := context.Background()

	_, err := f.orch.Sync(ctx, syncOpts)
	require.NoError(t, err)
	before := f.writer.ids()

	summary, err := f.orch.Sync(ctx, syncOpts)

	require.NoError(t, err)
	assert.Equal(t, "2", f.source.lastCursor())
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, "2", summary.LastSyncedID)
	assert.Equal(t, before, f.writer.ids())
	assert.Equal(t, "2", f.cursor(t))
}

func TestSyncOrchestrator_IncrementalFromCursor(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2", "3"), "2")

	summary, err := f.orch.Sync(context.Background(), syncOpts)

	require.NoError(t, err)
	assert.Equal(t, "2", summary.StartCursor)
	assert.Equal(t, "2", f.source.lastCursor())
	assert.Equal(t, []string{"3"}, f.writer.ids())
	assert.Equal(t, "3", f.cursor(t))
}

func TestSyncOrchestrator_Force(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2", "3"), "3")

	summary, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", Force: true})

	require.NoError(t, err)
	assert.Equal(t, "", f.source.lastCursor())
	assert.Equal(t, "", summary.StartCursor)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, "3", f.cursor(t))
}

func TestSyncOrchestrator_SkipErrors_FreezesCursor(t *testing.T) {
	items := syncBookmarks("1", "2", "3")
	items[1].Text = ""
	f := newSyncFixture(items, "")

	summary, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, f.writer.ids())
	assert.Equal(t, "1", f.cursor(t), "cursor stays before the first failure")
	assert.Equal(t, "1", summary.LastSyncedID)
	assert.Equal(t, 2, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "2", summary.Failures[0].BookmarkID)
	assert.Contains(t, summary.Failures[0].Reason, "text")
	assert.Equal(t, 0, summary.ExitCode())
	assert.Equal(t, []string{"1"}, f.state.History())
}

func TestSyncOrchestrator_NoSkip_AbortsOnFirstError(t *testing.T) {
	items := syncBookmarks("1", "2", "3")
	items[1].AuthorUsername = ""
	f := newSyncFixture(items, "")

	summary, err := f.orch.Sync(context.Background(), syncOpts)

	require.ErrorIs(t, err, domain.ErrMalformedRecord)
	assert.True(t, summary.Aborted)
	assert.Equal(t, []string{"1"}, f.writer.ids())
	assert.Equal(t, "1", f.cursor(t))
	assert.Equal(t, 1, summary.ExitCode())
}

func TestSyncOrchestrator_WriteErrorAbortsEvenWhenSkipping(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2", "3"), "")
	f.writer.failOn["2"] = errors.New("permission denied")

	summary, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})

	require.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, summary.Aborted)
	assert.Equal(t, []string{"1"}, f.writer.ids())
	assert.Equal(t, "1", f.cursor(t))
	assert.Equal(t, 1, summary.Failed())
	assert.Equal(t, 1, summary.ExitCode())
}

func TestSyncOrchestrator_UnwritableOutputDirAborts(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "notes")
	require.NoError(t, os.WriteFile(outputDir, []byte("not a directory"), 0600))

	state := memory.NewSyncStateStore(domain.SyncState{})
	orch := NewSyncOrchestrator(
		&syncMockSource{items: syncBookmarks("1", "2", "3")},
		state, markdown.New(""), storagefile.NewWriter(), nil, nil,
	)

	summary, err := orch.Sync(context.Background(), domain.SyncOptions{OutputDir: outputDir, SkipErrors: true})

	require.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.ExitCode())
	assert.Empty(t, state.History())
}

func TestSyncOrchestrator_StorageErrorAlwaysFatal(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2"), "")
	f.state.SaveErr = fmt.Errorf("%w: read-only file system", domain.ErrStorage)

	summary, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})

	require.ErrorIs(t, err, domain.ErrStorage)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, []string{"1"}, f.writer.ids(), "markdown written before the cursor save failed")
	assert.Equal(t, 1, summary.ExitCode())
}

func TestSyncOrchestrator_SourceErrorAborts(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1"), "")
	f.source.err = fmt.Errorf("%w: 503 after 3 attempts", domain.ErrSourceUnavailable)

	summary, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})

	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.True(t, summary.Aborted)
	assert.Equal(t, "1", f.cursor(t))
}

func TestSyncOrchestrator_Cancellation(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2", "3"), "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f.orch.WithProgress(func(b domain.Bookmark, _ bool) {
		if b.ID == "1" {
			cancel()
		}
	})

	summary, err := f.orch.Sync(ctx, syncOpts)

	require.ErrorIs(t, err, domain.ErrRunAborted)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, summary.Aborted)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, "1", f.cursor(t))
	assert.Equal(t, []string{"1"}, f.writer.ids())
}

func TestSyncOrchestrator_CursorMonotonic(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1", "2", "3", "4"), "")
	f.source.items[2].Text = ""

	_, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})
	require.NoError(t, err)

	history := f.state.History()
	for i := 1; i < len(history); i++ {
		assert.Less(t, history[i-1], history[i])
	}
	assert.Equal(t, "2", f.cursor(t))
}

func TestSyncOrchestrator_Media(t *testing.T) {
	b := syncBookmark("7")
	b.Media = []domain.MediaRef{
		{Type: domain.MediaPhoto, URL: "https://pbs.example/a.jpg"},
		{Type: domain.MediaPhoto, URL: "https://pbs.example/b.jpg"},
		{Type: domain.MediaVideo, PreviewURL: "https://pbs.example/v.jpg"},
	}
	f := newSyncFixture([]domain.Bookmark{b}, "")
	f.media.fail["https://pbs.example/b.jpg"] = true

	opts := domain.SyncOptions{
		OutputDir:         "out",
		DownloadMedia:     true,
		AllowedMediaTypes: []domain.MediaType{domain.MediaPhoto},
	}
	summary, err := f.orch.Sync(context.Background(), opts)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.MediaDownloaded)
	assert.Equal(t, 1, summary.MediaFailures)
	assert.Equal(t, []string{filepath.Join("out", "media")}, f.media.dirs)
	assert.Equal(t, [][]domain.MediaType{{domain.MediaPhoto}}, f.media.allowed)

	doc := f.writer.content("7")
	assert.Contains(t, doc, "(media/a.jpg)")
	assert.Contains(t, doc, "(https://pbs.example/b.jpg)")
	assert.Contains(t, doc, "(https://pbs.example/v.jpg)")
	assert.Equal(t, "7", f.cursor(t), "media failures do not fail the bookmark")
}

func TestSyncOrchestrator_MediaDisabled(t *testing.T) {
	b := syncBookmark("7")
	b.Media = []domain.MediaRef{{Type: domain.MediaPhoto, URL: "https://pbs.example/a.jpg"}}
	f := newSyncFixture([]domain.Bookmark{b}, "")

	summary, err := f.orch.Sync(context.Background(), syncOpts)

	require.NoError(t, err)
	assert.Empty(t, f.media.dirs)
	assert.Equal(t, 0, summary.MediaDownloaded)
	assert.Contains(t, f.writer.content("7"), "(https://pbs.example/a.jpg)")
}

func TestSyncOrchestrator_RecordsRuns(t *testing.T) {
	items := syncBookmarks("1", "2")
	items[1].Text = ""
	f := newSyncFixture(items, "")

	_, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})
	require.NoError(t, err)

	runs, err := f.orch.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 1, runs[0].Succeeded)
	assert.Equal(t, "1", runs[0].EndCursor)
	require.Len(t, runs[0].Failures, 1)
	assert.Equal(t, "2", runs[0].Failures[0].BookmarkID)
}

func TestSyncOrchestrator_LedgerFailureNotFatal(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1"), "")
	f.orch.ledger = &syncFailingLedger{}

	summary, err := f.orch.Sync(context.Background(), syncOpts)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}

func TestSyncOrchestrator_NoLedger(t *testing.T) {
	f := newSyncFixture(syncBookmarks("1"), "")
	f.orch.ledger = nil

	_, err := f.orch.Sync(context.Background(), syncOpts)
	require.NoError(t, err)

	runs, err := f.orch.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestSyncOrchestrator_Progress(t *testing.T) {
	items := syncBookmarks("1", "2")
	items[0].Text = ""
	f := newSyncFixture(items, "")

	var seen []string
	f.orch.WithProgress(func(b domain.Bookmark, ok bool) {
		seen = append(seen, fmt.Sprintf("%s:%t", b.ID, ok))
	})

	_, err := f.orch.Sync(context.Background(), domain.SyncOptions{OutputDir: "out", SkipErrors: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"1:false", "2:true"}, seen)
}

func TestLinkPath(t *testing.T) {
	assert.Equal(t, "media/a.jpg", linkPath("out", filepath.Join("out", "media", "a.jpg")))
	assert.Equal(t, "../elsewhere/a.jpg", linkPath("out", filepath.Join("elsewhere", "a.jpg")))
}
