package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// RetryConfig bounds how many times an idempotent transport call may be
// re-issued. Retries are explicit and finite; nothing in the hub
// retries silently or forever.
type RetryConfig struct {
	Attempts int           // total tries, including the first
	Delay    time.Duration // wait before the second try, doubled each retry
	MaxDelay time.Duration
}

// DefaultRetryConfig suits a LAN of small device microservices.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts: 2,
		Delay:    100 * time.Millisecond,
		MaxDelay: 2 * time.Second,
	}
}

// Permanent marks an error that must not be retried. WithRetry returns
// the wrapped error immediately.
func Permanent(err error) error {
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// WithRetry runs fn up to cfg.Attempts times with exponential backoff.
// Context cancellation and Permanent errors stop retrying immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}

	var lastErr error
	delay := cfg.Delay

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == cfg.Attempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

// IsRetryableHTTPStatus reports whether a response code signals a
// transient condition worth another try.
func IsRetryableHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= 500
}
