package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// Ensure RunLedger implements the interface.
var _ driven.RunLedger = (*RunLedger)(nil)

// RunLedger is an in-memory implementation of driven.RunLedger.
type RunLedger struct {
	mu   sync.RWMutex
	runs []domain.RunRecord
}

// NewRunLedger creates an empty ledger.
func NewRunLedger() *RunLedger {
	return &RunLedger{}
}

// Record appends a run.
func (l *RunLedger) Record(_ context.Context, run domain.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	run.Failures = append([]domain.ItemFailure(nil), run.Failures...)
	l.runs = append(l.runs, run)
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit returns all runs.
func (l *RunLedger) Recent(_ context.Context, limit int) ([]domain.RunRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if limit <= 0 || limit > len(l.runs) {
		limit = len(l.runs)
	}
	result := make([]domain.RunRecord, 0, limit)
	for i := len(l.runs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, l.runs[i])
	}
	return result, nil
}

// Close is a no-op.
func (l *RunLedger) Close() error {
	return nil
}
