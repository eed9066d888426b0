package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    *ParseError
		target error
		want   bool
	}{
		{
			name:   "length reason matches ErrBadLength",
			err:    NewParseError("length", -1, "declared 100, got 90"),
			target: ErrBadLength,
			want:   true,
		},
		{
			name:   "length reason also matches ErrBadRecord",
			err:    NewParseError("length", -1, "declared 100, got 90"),
			target: ErrBadRecord,
			want:   true,
		},
		{
			name:   "directory reason matches ErrBadRecord only",
			err:    NewParseError("directory", 24, "directory not a multiple of 12"),
			target: ErrBadRecord,
			want:   true,
		},
		{
			name:   "directory reason does not match ErrBadLength",
			err:    NewParseError("directory", 24, "directory not a multiple of 12"),
			target: ErrBadLength,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stderrors.Is(tt.err, tt.target))
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := NewParseError("terminator", 120, "no field terminator")
	assert.Contains(t, err.Error(), "at byte 120")

	err = NewParseError("length", -1, "short read")
	assert.NotContains(t, err.Error(), "at byte")
}

func TestMissingFieldError(t *testing.T) {
	err := NewMissingFieldError("title")
	assert.True(t, IsMissingTitle(err))
	assert.Contains(t, err.Error(), "title")

	// Non-title required fields fall back to the generic invalid-input sentinel.
	other := NewMissingFieldError("leader")
	assert.False(t, IsMissingTitle(other))
	assert.True(t, stderrors.Is(other, ErrInvalidInput))
}

func TestStoreErrorWrapping(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WrapStore("lookup", "edition", cause)
	require.Error(t, err)

	assert.True(t, stderrors.Is(err, ErrStoreUnavailable))
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Contains(t, err.Error(), "lookup")
	assert.Contains(t, err.Error(), "edition")

	assert.NoError(t, WrapStore("lookup", "edition", nil))
}

func TestCommitError(t *testing.T) {
	cause := stderrors.New("constraint violation")
	err := NewCommitError(4, cause)

	assert.True(t, IsStoreRejected(err))
	assert.Contains(t, err.Error(), "4 mutations")
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("author", "/authors/OS1A")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "/authors/OS1A")
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("store", nil, "cannot be nil")
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "store")
}
