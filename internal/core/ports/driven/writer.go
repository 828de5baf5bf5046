package driven

import "context"

// FileWriter writes output documents.
type FileWriter interface {
	// WriteFile atomically replaces path with data, creating parent directories.
	WriteFile(ctx context.Context, path string, data []byte) error
}
