package errorrecovery

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig defines the configuration for retry logic
type RetryConfig struct {
	MaxRetries    int           // Maximum number of retry attempts, negative for unlimited
	InitialDelay  time.Duration // Initial delay before first retry
	MaxDelay      time.Duration // Maximum delay between retries
	BackoffFactor float64       // Exponential backoff factor
	JitterFactor  float64       // Random jitter factor (0.0 to 1.0)

	// Retryable reports whether an error should be retried. Nil retries
	// every error.
	Retryable func(error) bool
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

func (c *RetryConfig) retryable(err error) bool {
	return c.Retryable == nil || c.Retryable(err)
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func() error

// RetryResult contains the result of a retry operation
type RetryResult struct {
	Attempts int
	Duration time.Duration
	Error    error
}

// Retry executes fn until it succeeds, returns a non-retryable error, runs
// out of attempts or ctx is cancelled.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc) RetryResult {
	start := time.Now()

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return RetryResult{Attempts: attempt, Duration: time.Since(start), Error: err}
		}

		err := fn()
		if err == nil {
			return RetryResult{Attempts: attempt + 1, Duration: time.Since(start)}
		}

		if attempt == config.MaxRetries || !config.retryable(err) {
			return RetryResult{Attempts: attempt + 1, Duration: time.Since(start), Error: err}
		}

		select {
		case <-time.After(Delay(config, attempt)):
		case <-ctx.Done():
			return RetryResult{Attempts: attempt + 1, Duration: time.Since(start), Error: ctx.Err()}
		}
	}
}

// Delay returns the wait before retry number attempt (zero based):
// InitialDelay * BackoffFactor^attempt, capped at MaxDelay, then spread by
// up to ±JitterFactor.
func Delay(config RetryConfig, attempt int) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.JitterFactor > 0 {
		jitterRange := delay * config.JitterFactor
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
	}

	return time.Duration(delay)
}
