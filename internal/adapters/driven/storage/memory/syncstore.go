package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore is an in-memory implementation of driven.SyncStateStore.
// Dry runs use it so nothing is persisted between runs.
type SyncStateStore struct {
	mu    sync.RWMutex
	state domain.SyncState
	saves []string

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

// NewSyncStateStore creates a store holding initial.
func NewSyncStateStore(initial domain.SyncState) *SyncStateStore {
	return &SyncStateStore{state: initial}
}

// Load returns the current state.
func (s *SyncStateStore) Load(ctx context.Context) (domain.SyncState, error) {
	if err := ctx.Err(); err != nil {
		return domain.SyncState{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

// Save replaces the current state.
func (s *SyncStateStore) Save(ctx context.Context, state domain.SyncState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.state = state
	s.saves = append(s.saves, state.LastSyncedID)
	return nil
}

// History returns every cursor saved, in order.
func (s *SyncStateStore) History() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.saves...)
}
