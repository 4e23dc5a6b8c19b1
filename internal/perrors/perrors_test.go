package perrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrCode
	}{
		{"validation", fmt.Errorf("title is required: %w", ErrValidationFailed), ErrCodeInvalidRequest},
		{"reference", fmt.Errorf("assignee: %w", ErrInvalidReference), ErrCodeInvalidReference},
		{"not found", fmt.Errorf("task: %w", ErrNotFound), ErrCodeNotFound},
		{"conflict", fmt.Errorf("email: %w", ErrConflict), ErrCodeConflict},
		{"forbidden", fmt.Errorf("role: %w", ErrForbidden), ErrCodeForbidden},
		{"unavailable", fmt.Errorf("breaker: %w", ErrServiceUnavailable), ErrCodeServiceUnavailable},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrCodeServiceUnavailable},
		{"canceled", context.Canceled, ErrCodeServiceUnavailable},
		{"unknown", errors.New("boom"), ErrCodeInternalServer},
		{"coded", New(ErrCodeUnauthorized, "Unauthorized", errors.New("no token")), ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	err := FromError("Failed to get task", fmt.Errorf("lookup: %w", ErrNotFound))

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusNotFound, perr.HttpStatus())
	assert.Equal(t, "lookup: not found", perr.Error())
	assert.False(t, perr.Retryable())

	coded := New(ErrCodeConflict, "dup", errors.New("taken"))
	assert.Equal(t, coded, FromError("ignored", coded))
}

func TestRetryable(t *testing.T) {
	var perr Err
	require.True(t, errors.As(FromError("report", context.DeadlineExceeded), &perr))
	assert.True(t, perr.Retryable())
	assert.Equal(t, http.StatusServiceUnavailable, perr.HttpStatus())

	require.True(t, errors.As(New(ErrCodeTooManyRequests, "slow down", nil), &perr))
	assert.True(t, perr.Retryable())
	assert.Equal(t, "error missing", perr.Error())
}
