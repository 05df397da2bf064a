package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoffSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, NewNopLogger())

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoffExhausts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := RetryWithBackoff(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return boom
	}, NewNopLogger())

	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoffStopsOnPermanent(t *testing.T) {
	bad := errors.New("bad request")
	calls := 0
	err := RetryWithBackoff(context.Background(), 5, time.Millisecond, func() error {
		calls++
		return Permanent(bad)
	}, NewNopLogger())

	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestRetryWithBackoffHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Hour, func() error {
		calls++
		cancel()
		return errors.New("transient")
	}, NewNopLogger())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry aborted")
	assert.Equal(t, 1, calls)
}
