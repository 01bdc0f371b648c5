package errors

import (
	"context"
	stderrors "errors"
	"time"
)

// Retry budget for outbound calls such as broadcast deliveries.
const (
	MaxRetries     = 3
	InitialBackoff = 200 * time.Millisecond
	MaxBackoff     = 5 * time.Second
)

// WithRetry calls fn until it succeeds or fails with an error IsRetryable rejects.
// It stops after MaxRetries retries, or early when ctx ends, and returns the last error from fn.
func WithRetry(ctx context.Context, fn func() error) error {
	backoff := InitialBackoff
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil || !IsRetryable(err) || attempt == MaxRetries {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		backoff = min(2*backoff, MaxBackoff)
	}
}

// IsRetryable reports whether err is an AppError marked retryable.
func IsRetryable(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr != nil && appErr.Retryable
}
