package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrAuth", ErrAuth},
		{"ErrSourceUnavailable", ErrSourceUnavailable},
		{"ErrMalformedResponse", ErrMalformedResponse},
		{"ErrMalformedRecord", ErrMalformedRecord},
		{"ErrMediaDownload", ErrMediaDownload},
		{"ErrStorage", ErrStorage},
		{"ErrRunAborted", ErrRunAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Wrapping tests sentinels survive double wrapping
func TestErrors_Wrapping(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("%w: %w", ErrSourceUnavailable, cause)

	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrAuth))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"auth", fmt.Errorf("me: %w", ErrAuth), true},
		{"storage", fmt.Errorf("%w: disk full", ErrStorage), true},
		{"source", ErrSourceUnavailable, true},
		{"malformed response", ErrMalformedResponse, true},
		{"malformed record", fmt.Errorf("%w: missing id", ErrMalformedRecord), false},
		{"media", ErrMediaDownload, false},
		{"other", errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}
