// Package domain defines the core business entities for xbm.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Bookmark: A bookmarked post in canonical form
//   - MediaRef: A remote attachment on a bookmark
//   - SyncState: The durable sync cursor
//   - SyncSummary: The outcome of one sync run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
