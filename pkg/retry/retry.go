// pkg/retry/retry.go - functions for retrying actions with exponential backoff.

package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/windowsadmins/playertoolkit/pkg/logging"
)

// RetryConfig defines the configuration for retry attempts
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	Multiplier      float64
}

// DefaultConfig is used for installer downloads.
func DefaultConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, InitialInterval: time.Second, Multiplier: 2.0}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so that Retry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// sleep is replaced in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs action until it succeeds, returns a permanent error, the
// attempts are used up or ctx is done. The last error is returned wrapped.
func Retry(ctx context.Context, config RetryConfig, action func(attempt int) error) error {
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	interval := config.InitialInterval

	var lastErr error
	for attempt := 1; attempt <= config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
			return err
		}

		lastErr = action(attempt)
		if lastErr == nil {
			return nil
		}

		if IsPermanent(lastErr) {
			logging.Warn("Non-retryable error encountered", "attempt", attempt, "error", lastErr)
			return lastErr
		}

		if attempt == config.MaxRetries {
			logging.Warn(fmt.Sprintf("Attempt %d/%d failed. No more retries.", attempt, config.MaxRetries), "error", lastErr)
			break
		}

		logging.Warn(fmt.Sprintf("Attempt %d/%d failed. Retrying in %s...", attempt, config.MaxRetries, interval),
			"error", lastErr)
		if err := sleep(ctx, interval); err != nil {
			return fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
		interval = time.Duration(float64(interval) * config.Multiplier)
	}

	return fmt.Errorf("action failed after %d attempts: %w", config.MaxRetries, lastErr)
}
