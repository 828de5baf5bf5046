package driven

import (
	"context"

	"github.com/custodia-labs/xbm/internal/core/domain"
)

// MediaFetcher downloads bookmark attachments.
type MediaFetcher interface {
	// FetchAll downloads every ref allowed by allowed (empty allows all) into dir.
	// Refs filtered out by the allow-list are omitted from the result; every other
	// ref has exactly one result, in input order. A failed download never affects
	// its siblings.
	FetchAll(ctx context.Context, dir string, refs []domain.MediaRef, allowed []domain.MediaType) []domain.MediaResult
}
