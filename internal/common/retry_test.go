package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/pennywise/internal/service"
)

func TestWithRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return nil
	}, service.RetryOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrNotFound
	}, service.RetryOptions{InitialDelay: time.Millisecond})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 1, calls)
}

func TestWithRetryRecoversFromTransientError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errors.New("connection reset"), Retryable: true}
		}
		return nil
	}, service.RetryOptions{InitialDelay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return &RetryableError{Err: errors.New("connection reset"), Retryable: true}
	}, service.RetryOptions{MaxAttempts: 4, InitialDelay: time.Millisecond})

	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 4, calls)
}

func TestWithRetryHonorsContextDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("connection reset"), Retryable: true}
	}, service.RetryOptions{InitialDelay: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsWhenOperationSeesCancellation(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return fmt.Errorf("query: %w", context.Canceled)
	}, service.RetryOptions{InitialDelay: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 1, calls, "a canceled caller gets no second attempt")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not found is permanent", err: ErrNotFound, want: false},
		{name: "wrapped not found is permanent", err: NewRemoteError("select", "goals", ErrNotFound), want: false},
		{name: "canceled context is terminal", err: context.Canceled, want: false},
		{name: "exceeded deadline is terminal", err: context.DeadlineExceeded, want: false},
		{name: "wrapped canceled context is terminal", err: fmt.Errorf("waiting for row: %w", context.Canceled), want: false},
		{name: "tagged retryable", err: &RetryableError{Err: errors.New("boom"), Retryable: true}, want: true},
		{name: "tagged permanent", err: &RetryableError{Err: errors.New("boom"), Retryable: false}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
