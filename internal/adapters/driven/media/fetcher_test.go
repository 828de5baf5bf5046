package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/xbm/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/xbm/internal/core/domain"
)

// dropConnection closes the connection without a response, producing a transport error.
func dropConnection(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	conn, _, err := w.(http.Hijacker).Hijack()
	require.NoError(t, err)
	conn.Close()
}

func testFetcher(maxRetries int) *Fetcher {
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	return New(client, file.NewWriter(), Config{
		MaxRetries:  maxRetries,
		BaseDelay:   time.Millisecond,
		Concurrency: 2,
	})
}

func TestFetcher_TransportErrorsThenSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) <= 2 {
			dropConnection(t, w)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("jpeg bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	results := testFetcher(2).FetchAll(context.Background(), dir,
		[]domain.MediaRef{{Type: domain.MediaPhoto, URL: srv.URL + "/img"}}, nil)

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].OK())
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, int32(3), calls.Load())

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
	assert.Equal(t, dir, filepath.Dir(results[0].Path))
	assert.Equal(t, ".jpg", filepath.Ext(results[0].Path))
}

func TestFetcher_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	results := testFetcher(2).FetchAll(context.Background(), t.TempDir(),
		[]domain.MediaRef{{Type: domain.MediaPhoto, URL: srv.URL + "/img.jpg"}}, nil)

	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, domain.ErrMediaDownload)
	assert.False(t, results[0].OK())
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_PermanentErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	results := testFetcher(2).FetchAll(context.Background(), t.TempDir(),
		[]domain.MediaRef{{Type: domain.MediaPhoto, URL: srv.URL + "/gone.jpg"}}, nil)

	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, domain.ErrMediaDownload)
	assert.Equal(t, 1, results[0].Attempts)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_FilterAndIndependence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.jpg" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("content of " + r.URL.Path))
	}))
	defer srv.Close()

	refs := []domain.MediaRef{
		{Type: domain.MediaPhoto, URL: srv.URL + "/a.jpg"},
		{Type: domain.MediaVideo, URL: srv.URL + "/v.mp4"},
		{Type: domain.MediaPhoto, URL: srv.URL + "/bad.jpg"},
		{Type: domain.MediaPhoto},
		{Type: domain.MediaPhoto, URL: srv.URL + "/b.png"},
	}

	results := testFetcher(0).FetchAll(context.Background(), t.TempDir(), refs, []domain.MediaType{domain.MediaPhoto})

	require.Len(t, results, 4, "filtered video is omitted")
	assert.Equal(t, refs[0], results[0].Ref)
	assert.True(t, results[0].OK())
	assert.ErrorIs(t, results[1].Err, domain.ErrMediaDownload)
	assert.ErrorIs(t, results[2].Err, domain.ErrMediaDownload, "missing url")
	assert.Equal(t, 0, results[2].Attempts)
	assert.True(t, results[3].OK(), "a failed sibling does not affect others")
	assert.Equal(t, ".png", filepath.Ext(results[3].Path))
}

func TestFetcher_SameContentSameFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("identical"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := testFetcher(0)
	ref := []domain.MediaRef{{Type: domain.MediaPhoto, URL: srv.URL + "/p.jpg"}}

	first := f.FetchAll(context.Background(), dir, ref, nil)
	second := f.FetchAll(context.Background(), dir, ref, nil)

	require.True(t, first[0].OK())
	require.True(t, second[0].OK())
	assert.Equal(t, first[0].Path, second[0].Path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := testFetcher(2).FetchAll(ctx, t.TempDir(),
		[]domain.MediaRef{{Type: domain.MediaPhoto, URL: srv.URL + "/p.jpg"}}, nil)

	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, context.Canceled)
	assert.Equal(t, 0, results[0].Attempts)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&statusError{code: http.StatusTooManyRequests}))
	assert.True(t, isTransient(&statusError{code: http.StatusServiceUnavailable}))
	assert.False(t, isTransient(&statusError{code: http.StatusNotFound}))
	assert.True(t, isTransient(&transportError{err: context.DeadlineExceeded}))
	assert.False(t, isTransient(context.Canceled))
}

func TestFetcher_OversizedBodyRejected(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "image/png")
		if r.URL.Path == "/exact" {
			_, _ = w.Write([]byte("12345678"))
			return
		}
		_, _ = w.Write([]byte("123456789"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(&http.Client{Timeout: 5 * time.Second}, file.NewWriter(), Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxBytes:   8,
	})

	results := f.FetchAll(context.Background(), dir, []domain.MediaRef{
		{Type: domain.MediaPhoto, URL: srv.URL + "/big"},
		{Type: domain.MediaPhoto, URL: srv.URL + "/exact"},
	}, nil)

	require.Len(t, results, 2)
	require.ErrorIs(t, results[0].Err, domain.ErrMediaDownload)
	assert.Contains(t, results[0].Err.Error(), "larger than 8 bytes")
	assert.False(t, results[0].OK())
	assert.Empty(t, results[0].Path)
	assert.Equal(t, 1, results[0].Attempts, "size limit is not retried")

	require.NoError(t, results[1].Err)
	data, err := os.ReadFile(results[1].Path)
	require.NoError(t, err)
	assert.Equal(t, "12345678", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no truncated file is written")
	assert.Equal(t, int32(2), calls.Load())
}
