package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// RunLedger keeps a history of sync runs.
type RunLedger interface {
	// Record stores a finished run.
	Record(ctx context.Context, run domain.RunRecord) error

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// Close releases resources.
	Close() error
}
