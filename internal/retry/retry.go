// Package retry provides a bounded retry combinator with context-aware
// delays, replacing ad-hoc sleep loops around transient failures.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidAttempts is returned when Do is called with a non-positive
// attempt budget.
var ErrInvalidAttempts = errors.New("retry: attempts must be positive")

// Classifier decides, for a failed attempt, whether the operation should be
// retried and how long to wait first. The attempt number starts at 1.
type Classifier func(attempt int, err error) (retryable bool, delay time.Duration)

// Do runs op up to attempts times. After each failure the classifier is
// consulted; a non-retryable error or an exhausted budget ends the loop and
// the last error is returned. Delays are interruptible by the context.
func Do(ctx context.Context, attempts int, classify Classifier, op func(ctx context.Context) error) error {
	if attempts <= 0 {
		return ErrInvalidAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		retryable, delay := classify(attempt, lastErr)
		if !retryable {
			break
		}
		if delay > 0 {
			if err := Sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// Sleep waits for the given duration or until the context is done,
// whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
