package x

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/logger"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 16 << 20

// Client performs X API v2 requests.
type Client struct {
	http        *http.Client
	baseURL     string
	rateLimiter *RateLimiter
}

// NewClient creates a client. httpClient must add authorisation, see NewHTTPClient.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		http:        httpClient,
		baseURL:     Config{BaseURL: baseURL}.withDefaults().BaseURL,
		rateLimiter: NewRateLimiter(),
	}
}

// WithRateLimiter replaces the client's rate limiter.
func (c *Client) WithRateLimiter(r *RateLimiter) *Client {
	c.rateLimiter = r
	return c
}

// PageQuery selects one page of the bookmarks timeline.
type PageQuery struct {
	MaxResults      int
	PaginationToken string
	SinceID         string
}

func (q PageQuery) values() url.Values {
	v := url.Values{
		"max_results":  {strconv.Itoa(domain.ClampPageSize(q.MaxResults))},
		"expansions":   {bookmarkExpansions},
		"tweet.fields": {bookmarkTweetFields},
		"media.fields": {bookmarkMediaFields},
		"user.fields":  {bookmarkUserFields},
	}
	if q.PaginationToken != "" {
		v.Set("pagination_token", q.PaginationToken)
	}
	if q.SinceID != "" {
		v.Set("since_id", q.SinceID)
	}
	return v
}

// Me returns the authenticated user's id.
func (c *Client) Me(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/users/me", nil)
	if err != nil {
		return "", err
	}
	return DecodeUserID(body)
}

// BookmarksPage fetches one page of userID's bookmarks.
func (c *Client) BookmarksPage(ctx context.Context, userID string, q PageQuery) (*Page, error) {
	body, err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/bookmarks", q.values())
	if err != nil {
		return nil, err
	}
	return DecodePage(body)
}

// get performs a GET and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("GET %s", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.wrapError(ctx, err, "GET "+path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.wrapError(ctx, err, "read "+path)
	}

	if err := c.rateLimiter.CheckRateLimit(resp); err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, body)
	}

	return body, nil
}

// wrapError classifies a failed exchange.
// Token failures already wrap domain.ErrAuth and cancellation is returned as-is.
func (c *Client) wrapError(ctx context.Context, err error, op string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, domain.ErrAuth) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
