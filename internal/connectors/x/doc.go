// Package x implements the bookmark source for the X (formerly Twitter) API v2.
//
// # Architecture
//
// The package follows the driven port pattern defined in [driven.BookmarkSource].
// It comprises the following components:
//
//   - Source: pages through the bookmarks timeline and emits bookmarks oldest first
//   - Client: performs authenticated requests with rate limiting and error classification
//   - DecodePage: the single deserialisation boundary between wire JSON and [domain.Bookmark]
//   - RateLimiter: proactive token-bucket throttling plus x-rate-limit-* header tracking
//
// # Authentication
//
// Requests are authorised with an OAuth 2.0 user access token carrying the
// bookmark.read, tweet.read and users.read scopes. Tokens are obtained from a
// [driven.TokenProvider] through [NewTokenSource], so refreshes stay in one place.
//
// # Pagination
//
// The bookmarks endpoint returns newest first and signals further pages with
// meta.next_token. The stored cursor is sent as since_id and also bounds
// pagination client-side: paging stops at the first item whose id equals the
// cursor. Pages are buffered and emitted in reverse so the caller commits the
// oldest new bookmark first.
//
// # Errors
//
// HTTP 401 and 403 map to [domain.ErrAuth]. HTTP 429, 5xx and transport failures
// are transient and retried with backoff; once retries run out they surface as
// [domain.ErrSourceUnavailable]. A body that does not have the expected shape is
// [domain.ErrMalformedResponse] and is never retried.
package x
