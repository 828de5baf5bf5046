package domain

import (
	"path/filepath"
	"time"
)

// Sync defaults.
const (
	// DefaultPageSize is the page size requested when none is configured.
	DefaultPageSize = 100

	// MaxPageSize is the largest page the bookmarks endpoint accepts.
	MaxPageSize = 100

	// DefaultMediaDirName is the media directory created under the output directory.
	DefaultMediaDirName = "media"
)

// SyncState is the durable sync cursor.
type SyncState struct {
	// LastSyncedID is the id of the last fully committed bookmark.
	// Empty means no prior sync.
	LastSyncedID string
}

// IsEmpty reports whether no bookmark has been committed yet.
func (s SyncState) IsEmpty() bool {
	return s.LastSyncedID == ""
}

// SyncOptions configures one sync run.
type SyncOptions struct {
	// OutputDir receives one markdown file per bookmark.
	OutputDir string

	// MediaDir receives downloaded attachments. Defaults to OutputDir/media.
	MediaDir string

	// PageSize is the number of bookmarks requested per page.
	PageSize int

	// Force ignores the stored cursor and re-fetches from the beginning.
	Force bool

	// DownloadMedia enables attachment downloads.
	DownloadMedia bool

	// AllowedMediaTypes restricts downloads to these types. Empty allows all.
	AllowedMediaTypes []MediaType

	// SkipErrors records per-bookmark failures and continues instead of aborting.
	SkipErrors bool
}

// WithDefaults returns a copy with empty fields filled in.
func (o SyncOptions) WithDefaults() SyncOptions {
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.MediaDir == "" {
		o.MediaDir = filepath.Join(o.OutputDir, DefaultMediaDirName)
	}
	o.PageSize = ClampPageSize(o.PageSize)
	return o
}

// ClampPageSize bounds a requested page size to what the API accepts.
func ClampPageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// ItemFailure records why one bookmark was not committed.
type ItemFailure struct {
	// BookmarkID may be empty when the record had no id.
	BookmarkID string
	Reason     string
}

// SyncSummary reports the outcome of one run.
type SyncSummary struct {
	// RunID uniquely identifies the run in the run ledger.
	RunID string

	StartedAt  time.Time
	FinishedAt time.Time

	// Succeeded counts bookmarks whose markdown was written.
	Succeeded int

	// Failures lists bookmarks that were not committed.
	Failures []ItemFailure

	// MediaDownloaded counts attachments written to disk.
	MediaDownloaded int

	// MediaFailures counts attachments that failed after retries.
	MediaFailures int

	// StartCursor is the cursor the run fetched from (empty on first run or --force).
	StartCursor string

	// LastSyncedID is the cursor persisted at the end of the run.
	LastSyncedID string

	// SkipErrors mirrors the option the run used.
	SkipErrors bool

	// Aborted is set when the run stopped early.
	Aborted bool

	// Err is the error that aborted the run, if any.
	Err error
}

// Failed returns the number of bookmarks that were not committed.
func (s *SyncSummary) Failed() int {
	return len(s.Failures)
}

// Duration returns how long the run took.
func (s *SyncSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// ExitCode maps the summary to a process exit status.
// A run exits non-zero when it aborted, or when an item failed while errors were not skipped.
func (s *SyncSummary) ExitCode() int {
	if s.Aborted {
		return 1
	}
	if len(s.Failures) > 0 && !s.SkipErrors {
		return 1
	}
	return 0
}
