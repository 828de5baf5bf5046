// Package media downloads bookmark attachments over HTTP.
//
// Attachments of one bookmark are fetched concurrently with a bounded number of
// workers. Every download is retried on transient failures (network errors,
// HTTP 429 and 5xx) with exponential backoff. Files are named by the first 16 hex
// characters of the SHA-256 of their content, so the same attachment always maps
// to the same file and re-running a sync does not duplicate media.
package media
