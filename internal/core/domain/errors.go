package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Sync Errors.

	// ErrAuth indicates the credentials are missing, invalid or expired.
	// Fatal to a run and never retried.
	ErrAuth = errors.New("authentication failed")

	// ErrSourceUnavailable indicates the remote API stayed unreachable or
	// rate limited after all retries.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMalformedResponse indicates the remote API returned a body whose shape
	// could not be mapped to bookmarks. Never retried.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMalformedRecord indicates a bookmark is missing a required field.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrMediaDownload indicates a single attachment could not be downloaded.
	// Isolated to that attachment; never aborts a run.
	ErrMediaDownload = errors.New("media download failed")

	// ErrStorage indicates a local write failed. Always fatal.
	ErrStorage = errors.New("storage error")

	// ErrRunAborted indicates a run stopped before the source was exhausted.
	ErrRunAborted = errors.New("sync aborted")
)

// IsFatal reports whether err must abort a run even when errors are skipped.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuth) ||
		errors.Is(err, ErrStorage) ||
		errors.Is(err, ErrSourceUnavailable) ||
		errors.Is(err, ErrMalformedResponse)
}
