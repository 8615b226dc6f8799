package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clinicops/etransfer-sync/internal/service"
)

var (
	// ErrRateLimit marks a Google API quota rejection.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries means every allowed attempt failed.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError lets callers state explicitly whether a failure is worth
// another attempt. Errors without this wrapper are retried by default.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetry runs operation until it succeeds, a non-retryable failure
// occurs, the context ends, or the attempt budget runs out. Sheets and
// Drive calls go through here so a quota blip does not abort a sync.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = withRetryDefaults(opts)

	var err error
	for attempt := 1; ; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		var re *RetryableError
		if errors.As(err, &re) && !re.Retryable {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %v", ErrMaxRetries, opts.MaxAttempts, err)
		}

		delay := nextDelay(opts, attempt)
		// Quota errors only clear once the window rolls over, so a short
		// retry would just burn an attempt.
		if errors.Is(err, ErrRateLimit) {
			delay = opts.MaxDelay
		}

		slog.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", delay,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func withRetryDefaults(opts service.RetryOptions) service.RetryOptions {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}
	return opts
}

// nextDelay grows the wait exponentially with each attempt, capped at
// the configured maximum.
func nextDelay(opts service.RetryOptions, attempt int) time.Duration {
	delay := opts.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay >= opts.MaxDelay {
			return opts.MaxDelay
		}
	}
	return delay
}
