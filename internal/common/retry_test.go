package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastRetry = RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Millisecond,
	MaxDelay:     2 * time.Millisecond,
	Multiplier:   2,
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrConcurrencyConflict
		}
		return nil
	}, fastRetry)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_Exhausted(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return ErrConcurrencyConflict
	}, fastRetry)

	require.ErrorIs(t, err, ErrMaxRetries)
	require.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.Equal(t, fastRetry.MaxAttempts, calls)
}

func TestWithRetry_PermanentStopsImmediately(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return Permanent(fmt.Errorf("wrapped: %w", boom))
	}, fastRetry)

	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := WithRetry(ctx, func() error {
		cancel()
		return ErrRateLimit
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour})

	require.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "conflict", err: fmt.Errorf("update: %w", ErrConcurrencyConflict), want: true},
		{name: "rate limit", err: ErrRateLimit, want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "flagged retryable", err: &RetryableError{Err: errors.New("503"), Retryable: true}, want: true},
		{name: "invalid argument", err: ErrInvalidArgument, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	err := NewUserError("Could not save property", ErrConcurrencyConflict)
	assert.Equal(t, "Could not save property: concurrency conflict", err.Error())
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "Could not save property", ue.UserMessage)

	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
}
