package x

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/logger"
	"github.com/custodia-labs/xbm/internal/retry"
)

// Verify interface compliance.
var _ driven.BookmarkSource = (*Source)(nil)

// Source streams the authenticated user's bookmarks.
type Source struct {
	client *Client
	policy retry.Policy

	mu     sync.Mutex
	userID string
}

// NewSource creates a bookmark source backed by client.
func NewSource(client *Client, cfg Config) *Source {
	cfg = cfg.withDefaults()
	return &Source{
		client: client,
		policy: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryDelay,
			Retryable:  IsTransient,
		},
	}
}

// FetchSince implements driven.BookmarkSource.
//
// All pages newer than cursor are fetched before the first bookmark is sent, then
// bookmarks are sent oldest first. A failure while paging sends a single error and
// no bookmarks.
func (s *Source) FetchSince(
	ctx context.Context, cursor string, pageSize int,
) (<-chan domain.Bookmark, <-chan error) {
	bookmarks := make(chan domain.Bookmark)
	errs := make(chan error, 1)

	go func() {
		defer close(bookmarks)
		defer close(errs)

		items, err := s.collect(ctx, cursor, domain.ClampPageSize(pageSize))
		if err != nil {
			errs <- err
			return
		}

		for i := len(items) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case bookmarks <- items[i]:
			}
		}
	}()

	return bookmarks, errs
}

// collect pages newest first until the server has no more pages or the cursor is reached.
func (s *Source) collect(ctx context.Context, cursor string, pageSize int) ([]domain.Bookmark, error) {
	userID, err := s.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	var items []domain.Bookmark
	seen := make(map[string]bool)
	token := ""

	for pageNum := 1; ; pageNum++ {
		query := PageQuery{MaxResults: pageSize, PaginationToken: token, SinceID: cursor}

		var page *Page
		attempts, err := retry.Do(ctx, s.policy, func(ctx context.Context, attempt int) error {
			if attempt > 0 {
				logger.Debug("retrying bookmarks page %d (attempt %d)", pageNum, attempt+1)
			}
			p, err := s.client.BookmarksPage(ctx, userID, query)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, s.requestError(ctx, err, fmt.Sprintf("bookmarks page %d", pageNum), attempts)
		}

		logger.Debug("page %d: %d bookmarks, next token %q", pageNum, len(page.Bookmarks), page.NextToken)

		for _, b := range page.Bookmarks {
			if cursor != "" && b.ID == cursor {
				logger.Debug("reached cursor %s on page %d", cursor, pageNum)
				return items, nil
			}
			items = append(items, b)
		}

		if page.NextToken == "" {
			return items, nil
		}
		if seen[page.NextToken] {
			return nil, fmt.Errorf("%w: pagination token %q repeated", domain.ErrMalformedResponse, page.NextToken)
		}
		seen[page.NextToken] = true
		token = page.NextToken
	}
}

// resolveUser looks up the authenticated user once per source.
func (s *Source) resolveUser(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID != "" {
		return s.userID, nil
	}

	var userID string
	attempts, err := retry.Do(ctx, s.policy, func(ctx context.Context, _ int) error {
		id, err := s.client.Me(ctx)
		if err != nil {
			return err
		}
		userID = id
		return nil
	})
	if err != nil {
		return "", s.requestError(ctx, err, "users/me", attempts)
	}

	s.userID = userID
	return userID, nil
}

// requestError maps a failed request to the error the pipeline acts on.
func (s *Source) requestError(ctx context.Context, err error, what string, attempts int) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, domain.ErrAuth), errors.Is(err, domain.ErrMalformedResponse):
		return err
	case IsTransient(err):
		return fmt.Errorf("%w: %s failed after %d attempts: %w", domain.ErrSourceUnavailable, what, attempts, err)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, what, err)
	}
}
