package x

import (
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the X API v2 root.
	DefaultBaseURL = "https://api.twitter.com/2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxRetries is the number of additional attempts for a transient page failure.
	MaxRetries = 2

	// RetryDelay is the delay before the first retry. It doubles on every retry.
	RetryDelay = time.Second
)

// Request field selections for the bookmarks endpoint.
const (
	bookmarkExpansions  = "author_id,attachments.media_keys"
	bookmarkTweetFields = "created_at,text,attachments,author_id"
	bookmarkMediaFields = "type,url,preview_image_url"
	bookmarkUserFields  = "name,username"
)

// Config holds the connector settings.
type Config struct {
	// BaseURL is the API root. Default: DefaultBaseURL.
	BaseURL string

	// MaxRetries overrides MaxRetries when non-negative.
	MaxRetries int

	// RetryDelay overrides RetryDelay when positive.
	RetryDelay time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		MaxRetries: MaxRetries,
		RetryDelay: RetryDelay,
	}
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.MaxRetries < 0 {
		c.MaxRetries = MaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = RetryDelay
	}
	return c
}
