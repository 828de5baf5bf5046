// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - BookmarkSource: Paginated bookmark retrieval from the remote API
//   - SyncStateStore: Durable sync cursor
//   - Renderer: Bookmark to markdown conversion
//   - FileWriter: Atomic output writes
//   - TokenProvider: Access tokens for the API client
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - MediaFetcher: Attachment downloads. Without it, markdown links to remote URLs.
//   - RunLedger: Sync run history. Without it, runs are only reported on the terminal.
//   - TokenStore: OAuth token persistence. Not needed with a static token.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or renderer package
package driven
