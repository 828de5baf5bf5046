package domain

import "time"

// RunRecord is a persisted summary of one sync run.
type RunRecord struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Succeeded       int
	MediaDownloaded int
	MediaFailures   int
	StartCursor     string
	EndCursor       string
	Aborted         bool
	Error           string
	Failures        []ItemFailure
}

// NewRunRecord converts a summary into its persisted form.
func NewRunRecord(s *SyncSummary) RunRecord {
	rec := RunRecord{
		ID:              s.RunID,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		Succeeded:       s.Succeeded,
		MediaDownloaded: s.MediaDownloaded,
		MediaFailures:   s.MediaFailures,
		StartCursor:     s.StartCursor,
		EndCursor:       s.LastSyncedID,
		Aborted:         s.Aborted,
		Failures:        append([]ItemFailure(nil), s.Failures...),
	}
	if s.Err != nil {
		rec.Error = s.Err.Error()
	}
	return rec
}

// Failed returns the number of bookmarks the run did not commit.
func (r RunRecord) Failed() int {
	return len(r.Failures)
}
