package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	attempts, err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Transient(errors.New("rate limited"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	attempts, err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return Transient(errors.New("timeout"))
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("invalid API key")
	attempts, err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestDoHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	p := Policy{MaxAttempts: 10, InitialBackoff: 50 * time.Millisecond}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := Do(ctx, p, func(context.Context) error {
			calls++
			return Transient(errors.New("still failing"))
		})
		assert.Error(t, err)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancellation")
	}
	assert.Less(t, calls, 10)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(Transient(errors.New("429"))))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.False(t, IsTransient(nil))
}

func TestLimiterBackoffAfterRateLimitError(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1000, BurstSize: 10})
	l.RecordRateLimitError(20 * time.Millisecond)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestLimiterWaitCancellable(t *testing.T) {
	l := NewLimiter(Config{RequestsPerSecond: 1000, BurstSize: 10})
	l.RecordRateLimitError(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx)
	assert.Error(t, err)
}
