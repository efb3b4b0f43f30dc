package ai

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"resumeforge/internal/errors"
)

const maxBackoff = 30 * time.Second

// retryPolicy runs a call up to maxRetries+1 times
type retryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *errors.Logger
}

func newRetryPolicy(maxRetries int, logger *errors.Logger) retryPolicy {
	return retryPolicy{maxRetries: max(maxRetries, 0), baseDelay: time.Second, logger: logger}
}

// backoff returns the delay before the given retry attempt (1-based):
// exponential growth with up to 10% random jitter, capped at 30 seconds.
func (p retryPolicy) backoff(attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * p.baseDelay
	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if jitter, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(jitter.Int64())
		}
	}
	return min(delay, maxBackoff)
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func executeWithRetry[T any](ctx context.Context, p retryPolicy, operation string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", p.maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(p.backoff(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				p.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if ctx.Err() != nil {
			return zero, err
		}
		if !isRetryableError(err) {
			p.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			return zero, err
		}
	}

	p.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", p.maxRetries+1)

	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, p.maxRetries, lastErr)
}
