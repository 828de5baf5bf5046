package markdown

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
)

// DefaultBaseURL is the site links are built against.
const DefaultBaseURL = "https://twitter.com"

// Layouts for the posted line and the file name. Both are rendered in UTC.
const (
	postedLayout   = "2006-01-02 15:04:05"
	fileTimeLayout = "20060102-150405"
)

// entityRegex matches a mention or hashtag: the sigil followed by letters, digits or underscores.
var entityRegex = regexp.MustCompile(`([@#])([\p{L}\p{N}_]+)`)

// Ensure Renderer implements the interface.
var _ driven.Renderer = (*Renderer)(nil)

// Renderer turns bookmarks into standalone markdown documents.
type Renderer struct {
	baseURL string
}

// New creates a renderer linking to baseURL. Empty selects DefaultBaseURL.
func New(baseURL string) *Renderer {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Renderer{baseURL: baseURL}
}

// Render produces the markdown document using remote media URLs.
func (r *Renderer) Render(b domain.Bookmark) (string, error) {
	return r.RenderWithMedia(b, nil)
}

// RenderWithMedia produces the markdown document. Media entries whose remote URL
// has an entry in localPaths link to the local file instead.
func (r *Renderer) RenderWithMedia(b domain.Bookmark, localPaths map[string]string) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}

	sections := []string{
		fmt.Sprintf("# Tweet by @%s", b.AuthorUsername),
		r.rewriteEntities(b.Text),
		fmt.Sprintf("Posted: %s UTC", b.CreatedAt.UTC().Format(postedLayout)),
	}

	if b.HasMedia() {
		var sb strings.Builder
		sb.WriteString("## Media")
		for _, m := range b.Media {
			link := m.DownloadURL()
			if link == "" {
				continue
			}
			if local, ok := localPaths[link]; ok {
				link = local
			}
			sb.WriteString(fmt.Sprintf("\n- [%s](%s)", m.Type, link))
		}
		sections = append(sections, sb.String())
	}

	sections = append(sections, fmt.Sprintf("[Original Tweet](%s/%s/status/%s)", r.baseURL, b.AuthorUsername, b.ID))

	return strings.Join(sections, "\n\n"), nil
}

// TargetPath returns outputDir/{YYYYMMDD-HHMMSS}-{author}-{id}.md.
func (r *Renderer) TargetPath(b domain.Bookmark, outputDir string) (string, error) {
	if err := b.Validate(); err != nil {
		return "", err
	}
	return filepath.Join(outputDir, FileName(b)), nil
}

// FileName returns the document file name for b. b must be valid.
func FileName(b domain.Bookmark) string {
	return fmt.Sprintf("%s-%s-%s.md", b.CreatedAt.UTC().Format(fileTimeLayout), b.AuthorUsername, b.ID)
}

// rewriteEntities links mentions and hashtags in a single pass, so text produced
// by one replacement is never matched again.
func (r *Renderer) rewriteEntities(text string) string {
	return entityRegex.ReplaceAllStringFunc(text, func(match string) string {
		sigil, name := match[:1], match[1:]
		if sigil == "@" {
			return fmt.Sprintf("[@%s](%s/%s)", name, r.baseURL, name)
		}
		return fmt.Sprintf("[#%s](%s/hashtag/%s)", name, r.baseURL, name)
	})
}
