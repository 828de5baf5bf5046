// Package file provides filesystem implementations of driven storage ports.
//
// Adapters:
//   - SyncStateStore: JSON sync cursor ({"last_sync": "<id>"})
//   - TokenStore: JSON OAuth token storage with owner-only permissions
//   - Writer: atomic document writer
//
// Every write goes through WriteAtomic: the data is written to a temporary file
// in the target directory, synced, then renamed over the target, so readers see
// either the old or the new content and never a torn file.
package file
