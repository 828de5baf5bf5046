package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/logger"
)

// StateFileName is the sync state file inside the state directory.
const StateFileName = "state.json"

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore persists the sync cursor as a small JSON document.
type SyncStateStore struct {
	filePath string
}

// NewSyncStateStore creates a store for stateDir/state.json.
func NewSyncStateStore(stateDir string) *SyncStateStore {
	return &SyncStateStore{filePath: filepath.Join(stateDir, StateFileName)}
}

// Load reads the cursor. A missing, unreadable or corrupt file is an empty state.
// Both "last_sync" and the older "last_synced_id" keys are accepted.
func (s *SyncStateStore) Load(ctx context.Context) (domain.SyncState, error) {
	if err := ctx.Err(); err != nil {
		return domain.SyncState{}, err
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("sync state %s unreadable, starting fresh: %v", s.filePath, err)
		}
		return domain.SyncState{}, nil
	}

	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		logger.Warn("sync state %s is corrupt, starting fresh", s.filePath)
		return domain.SyncState{}, nil
	}

	for _, key := range []string{"last_sync", "last_synced_id"} {
		v := gjson.GetBytes(data, key)
		if v.Exists() && v.Type != gjson.Null && v.String() != "" {
			return domain.SyncState{LastSyncedID: v.String()}, nil
		}
	}
	return domain.SyncState{}, nil
}

// Save atomically replaces the state file.
func (s *SyncStateStore) Save(ctx context.Context, state domain.SyncState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(struct {
		LastSync string `json:"last_sync"`
	}{LastSync: state.LastSyncedID})
	if err != nil {
		return fmt.Errorf("%w: encode state: %w", domain.ErrStorage, err)
	}

	if err := WriteAtomic(s.filePath, data, 0644); err != nil {
		return fmt.Errorf("%w: save state: %w", domain.ErrStorage, err)
	}
	return nil
}

// Path returns the state file path.
func (s *SyncStateStore) Path() string {
	return s.filePath
}
