package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBookmark() Bookmark {
	return Bookmark{
		ID:             "123",
		Text:           "Hello @bob #x",
		AuthorUsername: "alice",
		CreatedAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want MediaType
	}{
		{"photo", MediaPhoto},
		{"video", MediaVideo},
		{"animated_gif", MediaAnimatedGIF},
		{"PHOTO", MediaPhoto},
		{" video ", MediaVideo},
		{"", MediaOther},
		{"hologram", MediaOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMediaType(tt.in))
		})
	}
}

func TestMediaRef_DownloadURL(t *testing.T) {
	t.Run("prefers primary url", func(t *testing.T) {
		ref := MediaRef{URL: "https://a/1.jpg", PreviewURL: "https://a/p.jpg"}
		assert.Equal(t, "https://a/1.jpg", ref.DownloadURL())
		assert.True(t, ref.Downloadable())
	})

	t.Run("falls back to preview", func(t *testing.T) {
		ref := MediaRef{Type: MediaVideo, PreviewURL: "https://a/p.jpg"}
		assert.Equal(t, "https://a/p.jpg", ref.DownloadURL())
		assert.True(t, ref.Downloadable())
	})

	t.Run("neither present", func(t *testing.T) {
		ref := MediaRef{Type: MediaPhoto}
		assert.Empty(t, ref.DownloadURL())
		assert.False(t, ref.Downloadable())
	})
}

func TestBookmark_Validate_Valid(t *testing.T) {
	require.NoError(t, validBookmark().Validate())
}

func TestBookmark_Validate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *Bookmark)
		missing string
	}{
		{"id", func(b *Bookmark) { b.ID = "" }, "id"},
		{"text", func(b *Bookmark) { b.Text = "" }, "text"},
		{"author", func(b *Bookmark) { b.AuthorUsername = "" }, "author_username"},
		{"created_at", func(b *Bookmark) { b.CreatedAt = time.Time{} }, "created_at"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBookmark()
			tt.mutate(&b)

			err := b.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRecord))
			assert.Contains(t, err.Error(), tt.missing)
		})
	}
}

func TestBookmark_Validate_ReportsAllMissingFields(t *testing.T) {
	err := Bookmark{ID: "9"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text, author_username, created_at")
}

func TestBookmark_Validate_RejectsPathSeparators(t *testing.T) {
	b := validBookmark()
	b.AuthorUsername = "../etc"
	assert.ErrorIs(t, b.Validate(), ErrMalformedRecord)

	b = validBookmark()
	b.ID = `12\34`
	assert.ErrorIs(t, b.Validate(), ErrMalformedRecord)

	b = validBookmark()
	b.ID = ".."
	assert.ErrorIs(t, b.Validate(), ErrMalformedRecord)
}

func TestBookmark_HasMedia(t *testing.T) {
	b := validBookmark()
	assert.False(t, b.HasMedia())

	b.Media = []MediaRef{{Type: MediaPhoto, URL: "https://a/1.jpg"}}
	assert.True(t, b.HasMedia())
}

func TestMediaResult_OK(t *testing.T) {
	assert.True(t, MediaResult{Path: "/tmp/a.jpg"}.OK())
	assert.False(t, MediaResult{Path: "/tmp/a.jpg", Err: ErrMediaDownload}.OK())
	assert.False(t, MediaResult{}.OK())
}

func TestMediaRef_AllowedBy(t *testing.T) {
	photo := MediaRef{Type: MediaPhoto}

	assert.True(t, photo.AllowedBy(nil))
	assert.True(t, photo.AllowedBy([]MediaType{MediaVideo, MediaPhoto}))
	assert.False(t, photo.AllowedBy([]MediaType{MediaVideo}))
}
