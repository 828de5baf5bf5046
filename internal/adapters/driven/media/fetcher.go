package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/xbm/internal/core/domain"
	"github.com/custodia-labs/xbm/internal/core/ports/driven"
	"github.com/custodia-labs/xbm/internal/logger"
	"github.com/custodia-labs/xbm/internal/retry"
)

const (
	// DefaultMaxRetries is the number of additional attempts per attachment.
	DefaultMaxRetries = 2

	// DefaultBaseDelay is the backoff before the first retry. It doubles on every retry.
	DefaultBaseDelay = time.Second

	// DefaultConcurrency bounds simultaneous downloads for one bookmark.
	DefaultConcurrency = 4

	// DefaultTimeout bounds one download attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes bounds the size of one attachment.
	DefaultMaxBytes = 512 << 20
)

// Config controls download behaviour.
type Config struct {
	MaxRetries  int
	BaseDelay   time.Duration
	Concurrency int
	Timeout     time.Duration

	// MaxBytes rejects larger attachments. Default: DefaultMaxBytes.
	MaxBytes int64
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  DefaultMaxRetries,
		BaseDelay:   DefaultBaseDelay,
		Concurrency: DefaultConcurrency,
		Timeout:     DefaultTimeout,
		MaxBytes:    DefaultMaxBytes,
	}
}

// Ensure Fetcher implements the interface.
var _ driven.MediaFetcher = (*Fetcher)(nil)

// Fetcher downloads attachments and writes them through a FileWriter.
type Fetcher struct {
	http        *http.Client
	writer      driven.FileWriter
	policy      retry.Policy
	concurrency int
	maxBytes    int64
}

// New creates a fetcher. A nil httpClient gets one with cfg.Timeout.
func New(httpClient *http.Client, writer driven.FileWriter, cfg Config) *Fetcher {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Fetcher{
		http:   httpClient,
		writer: writer,
		policy: retry.Policy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.BaseDelay,
			Retryable:  isTransient,
		},
		concurrency: cfg.Concurrency,
		maxBytes:    cfg.MaxBytes,
	}
}

// FetchAll implements driven.MediaFetcher.
func (f *Fetcher) FetchAll(
	ctx context.Context, dir string, refs []domain.MediaRef, allowed []domain.MediaType,
) []domain.MediaResult {
	var selected []domain.MediaRef
	for _, ref := range refs {
		if !ref.AllowedBy(allowed) {
			logger.Debug("skipping %s media %s: type not allowed", ref.Type, ref.DownloadURL())
			continue
		}
		selected = append(selected, ref)
	}

	// Each worker owns one slot, so no locking is needed.
	results := make([]domain.MediaResult, len(selected))

	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, ref := range selected {
		g.Go(func() error {
			results[i] = f.fetch(ctx, dir, ref)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetch downloads one attachment. Failures are reported in the result, never returned.
func (f *Fetcher) fetch(ctx context.Context, dir string, ref domain.MediaRef) domain.MediaResult {
	result := domain.MediaResult{Ref: ref}

	src := ref.DownloadURL()
	if src == "" {
		result.Err = fmt.Errorf("%w: %s attachment %q has no url", domain.ErrMediaDownload, ref.Type, ref.Key)
		return result
	}

	var body []byte
	var contentType string
	attempts, err := retry.Do(ctx, f.policy, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			logger.Debug("retrying %s (attempt %d)", src, attempt+1)
		}
		b, ct, err := f.download(ctx, src)
		if err != nil {
			return err
		}
		body, contentType = b, ct
		return nil
	})
	result.Attempts = attempts
	if err != nil {
		result.Err = fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrMediaDownload, src, attempts, err)
		return result
	}

	path := filepath.Join(dir, FileName(src, contentType, body))
	if info, err := os.Stat(path); err == nil && info.Size() == int64(len(body)) {
		logger.Debug("media %s already present", path)
		result.Path = path
		return result
	}

	if err := f.writer.WriteFile(ctx, path, body); err != nil {
		result.Err = fmt.Errorf("%w: %s: %w", domain.ErrMediaDownload, src, err)
		return result
	}

	logger.Debug("downloaded %s -> %s (%d bytes)", src, path, len(body))
	result.Path = path
	return result
}

// download performs one attempt. The response body is always closed.
func (f *Fetcher) download(ctx context.Context, src string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", &transportError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, "", &statusError{code: resp.StatusCode}
	}

	// One byte past the limit tells an oversized body from one that fits exactly.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		return nil, "", &transportError{err: err}
	}
	if int64(len(body)) > f.maxBytes {
		return nil, "", &tooLargeError{limit: f.maxBytes}
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}

// tooLargeError is a body over the size limit. Never retried.
type tooLargeError struct {
	limit int64
}

func (e *tooLargeError) Error() string {
	return fmt.Sprintf("attachment larger than %d bytes", e.limit)
}

// transportError is a failed exchange (connection reset, timeout, truncated body).
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}

// isTransient reports whether another attempt may succeed.
func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var te *transportError
	return errors.As(err, &te)
}
