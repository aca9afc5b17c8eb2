package embedder

import (
	"context"
	"time"
)

// RetryConfig controls exponential backoff for provider calls
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryConfig returns the standard retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     MaxRetries,
		InitialBackoff: InitialBackoffMs * time.Millisecond,
		MaxBackoff:     MaxBackoffMs * time.Millisecond,
		Multiplier:     BackoffMultiplier,
	}
}

// retryWithBackoff retries fn with exponential backoff until it succeeds,
// the retry budget is exhausted, or the context is cancelled.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * config.Multiplier)
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}

		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	return result, lastErr
}
