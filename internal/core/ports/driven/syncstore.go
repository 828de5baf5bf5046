package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// SyncStateStore persists sync progress.
type SyncStateStore interface {
	// Load returns the stored state. A missing or corrupt store yields an empty
	// state and no error; only context cancellation is reported.
	Load(ctx context.Context) (domain.SyncState, error)

	// Save replaces the stored state atomically.
	Save(ctx context.Context, state domain.SyncState) error
}
