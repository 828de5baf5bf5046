package driven

import "github.com/custodia-labs/xbm/internal/core/domain"

// Renderer converts a bookmark to its on-disk document.
// Implementations are pure: identical input yields identical output.
type Renderer interface {
	// Render produces the document using remote media URLs.
	Render(b domain.Bookmark) (string, error)

	// RenderWithMedia produces the document, replacing remote media URLs with the
	// local paths in localPaths (keyed by remote URL) where present.
	RenderWithMedia(b domain.Bookmark, localPaths map[string]string) (string, error)

	// TargetPath returns the file the document is written to.
	TargetPath(b domain.Bookmark, outputDir string) (string, error)
}
