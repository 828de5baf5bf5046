package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// BookmarkSource produces bookmarks from the remote API.
type BookmarkSource interface {
	// FetchSince returns bookmarks newer than cursor, or all bookmarks when cursor is empty.
	//
	// The bookmark channel yields a finite sequence in commit order (oldest first) and is
	// closed when the source is exhausted. At most one error is sent on the error channel;
	// once an error is sent no further bookmarks follow. Both channels are closed when
	// production stops.
	FetchSince(ctx context.Context, cursor string, pageSize int) (<-chan domain.Bookmark, <-chan error)
}
