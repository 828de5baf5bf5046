package domain

import (
	"fmt"
	"strings"
	"time"
)

// MediaType classifies an attachment on a bookmarked post.
type MediaType string

// Media types reported by the platform.
const (
	MediaPhoto       MediaType = "photo"
	MediaVideo       MediaType = "video"
	MediaAnimatedGIF MediaType = "animated_gif"
	MediaOther       MediaType = "other"
)

// ParseMediaType maps a wire value to a MediaType.
// Unknown or empty values map to MediaOther.
func ParseMediaType(s string) MediaType {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaPhoto:
		return MediaPhoto
	case MediaVideo:
		return MediaVideo
	case MediaAnimatedGIF:
		return MediaAnimatedGIF
	default:
		return MediaOther
	}
}

// MediaRef points at a remote attachment.
type MediaRef struct {
	// Key is the platform media key, if known.
	Key string

	// Type is the attachment kind.
	Type MediaType

	// URL is the primary download location.
	URL string

	// PreviewURL is used when URL is absent (videos and GIFs only expose a preview).
	PreviewURL string
}

// DownloadURL returns the URL to fetch, preferring the primary URL.
func (m MediaRef) DownloadURL() string {
	if m.URL != "" {
		return m.URL
	}
	return m.PreviewURL
}

// Downloadable reports whether the ref has any usable URL.
func (m MediaRef) Downloadable() bool {
	return m.DownloadURL() != ""
}

// AllowedBy reports whether the ref's type is in types. An empty list allows everything.
func (m MediaRef) AllowedBy(types []MediaType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == m.Type {
			return true
		}
	}
	return false
}

// Bookmark is the canonical, transport-agnostic bookmarked post.
// It is treated as an immutable value once decoded.
type Bookmark struct {
	// ID is stable across syncs and doubles as the sync cursor.
	ID string

	// Text is the raw author-supplied text.
	Text string

	// AuthorUsername is the author's handle without the leading @.
	AuthorUsername string

	// CreatedAt is the post creation instant.
	CreatedAt time.Time

	// Media lists attachments in display order.
	Media []MediaRef
}

// Validate checks that every required field is present.
// The returned error wraps ErrMalformedRecord and names each missing field.
func (b Bookmark) Validate() error {
	var missing []string
	if b.ID == "" {
		missing = append(missing, "id")
	}
	if b.Text == "" {
		missing = append(missing, "text")
	}
	if b.AuthorUsername == "" {
		missing = append(missing, "author_username")
	}
	if b.CreatedAt.IsZero() {
		missing = append(missing, "created_at")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: bookmark %q missing %s", ErrMalformedRecord, b.ID, strings.Join(missing, ", "))
	}

	// Both values end up in a file name.
	if !safePathComponent(b.ID) {
		return fmt.Errorf("%w: bookmark id %q is not a valid file name component", ErrMalformedRecord, b.ID)
	}
	if !safePathComponent(b.AuthorUsername) {
		return fmt.Errorf("%w: author %q is not a valid file name component", ErrMalformedRecord, b.AuthorUsername)
	}
	return nil
}

// HasMedia reports whether the bookmark carries attachments.
func (b Bookmark) HasMedia() bool {
	return len(b.Media) > 0
}

func safePathComponent(s string) bool {
	if s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`+"\x00")
}

// MediaResult is the outcome of downloading one MediaRef.
// It lives only for the duration of a run.
type MediaResult struct {
	Ref MediaRef

	// Path is the local file written on success.
	Path string

	// Attempts counts every download attempt, including the successful one.
	Attempts int

	// Err is set when the download failed after all retries.
	Err error
}

// OK reports whether the download succeeded.
func (r MediaResult) OK() bool {
	return r.Err == nil && r.Path != ""
}
