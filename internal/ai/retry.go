package ai

import (
	"context"
	"fmt"
	"math"
	"time"
)

// defaultMaxRetries is the default number of retry attempts
const defaultMaxRetries = 3

// retryWithBackoff executes fn with exponential backoff, returning the first
// successful result or the last error after maxAttempts. The backoff wait is
// cancellable: once ctx is done no further attempt is made, so a shutdown
// never sits through a pending sleep.
func retryWithBackoff[T any](ctx context.Context, maxAttempts int, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var err error
		result, err = fn()
		if err == nil {
			return result, nil
		}

		lastErr = err
		if attempt < maxAttempts {
			// Exponential backoff: 2^n * 1000ms
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, fmt.Errorf("retry aborted after attempt %d: %w", attempt, ctx.Err())
			case <-timer.C:
			}
		}
	}

	return result, fmt.Errorf("all retry attempts failed: %w", lastErr)
}
