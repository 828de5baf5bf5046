package file

import (
	"context"
	"fmt"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// Ensure Writer implements the interface.
var _ driven.FileWriter = (*Writer)(nil)

// Writer writes documents atomically.
type Writer struct{}

// NewWriter creates a new writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteFile atomically replaces path with data.
// Disk failures wrap domain.ErrStorage.
func (w *Writer) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := WriteAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %w", domain.ErrStorage, path, err)
	}
	return nil
}
