// Package connectors holds clients for remote bookmark sources.
//
// Each connector implements driven.BookmarkSource and owns its transport:
// authentication, pagination, rate limiting and mapping the wire format to
// domain.Bookmark.
package connectors
