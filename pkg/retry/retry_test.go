package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func noSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	t.Cleanup(func() { sleep = orig })
	return &waits
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	waits := noSleep(t)
	calls := 0
	err := Retry(context.Background(), RetryConfig{MaxRetries: 3, InitialInterval: time.Second, Multiplier: 2}, func(int) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetryGivesUp(t *testing.T) {
	noSleep(t)
	base := errors.New("connection refused")
	calls := 0
	err := Retry(context.Background(), DefaultConfig(), func(int) error {
		calls++
		return base
	})
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	noSleep(t)
	notFound := errors.New("404")
	calls := 0
	err := Retry(context.Background(), DefaultConfig(), func(int) error {
		calls++
		return Permanent(notFound)
	})
	assert.ErrorIs(t, err, notFound)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestRetryHonoursContext(t *testing.T) {
	noSleep(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, DefaultConfig(), func(int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryPassesAttemptNumber(t *testing.T) {
	noSleep(t)
	var seen []int
	_ = Retry(context.Background(), RetryConfig{MaxRetries: 2}, func(attempt int) error {
		seen = append(seen, attempt)
		return errors.New("x")
	})
	assert.Equal(t, []int{1, 2}, seen)
}
