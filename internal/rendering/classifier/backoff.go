package classifier

import (
	"math"
	"math/rand/v2"
	"time"
)

// MaxJitter is the largest fraction added on top of a backoff delay.
const MaxJitter = 0.3

// ExponentialBackoff computes InitialDelay * 2^(attempt-1), capped at MaxDelay.
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// Retry budgets per category. Network failures are the most likely to clear
// up on their own, library failures the least.
var backoffs = map[Category]ExponentialBackoff{
	CategoryNetwork:   {InitialDelay: 1 * time.Second, MaxDelay: 10 * time.Second, MaxAttempts: 3},
	CategoryRendering: {InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, MaxAttempts: 2},
	CategoryUnknown:   {InitialDelay: 1 * time.Second, MaxDelay: 8 * time.Second, MaxAttempts: 2},
	CategoryLibrary:   {InitialDelay: 2 * time.Second, MaxDelay: 10 * time.Second, MaxAttempts: 1},
}

// Backoff returns the backoff policy for code. Non-retryable codes get the
// zero policy.
func Backoff(code Code) ExponentialBackoff {
	e := lookup(code)
	if !e.retryable {
		return ExponentialBackoff{}
	}
	if b, ok := backoffs[e.category]; ok {
		return b
	}
	return backoffs[CategoryUnknown]
}

// GetDelay returns the un-jittered delay for a 1-indexed attempt.
func (b ExponentialBackoff) GetDelay(attempt int) time.Duration {
	if b.InitialDelay <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(b.InitialDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(b.MaxDelay) {
		return b.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether another attempt is allowed after attempt
// attempts have been made.
func (b ExponentialBackoff) ShouldRetry(attempt int) bool {
	return attempt < b.MaxAttempts
}

// RetryDelay returns how long to wait before the given 1-indexed attempt,
// including up to 30% jitter. Zero for non-retryable codes.
func RetryDelay(code Code, attempt int) time.Duration {
	base := Backoff(code).GetDelay(attempt)
	if base == 0 {
		return 0
	}
	return base + time.Duration(float64(base)*MaxJitter*rand.Float64())
}

// MaxAttempts returns the retry budget for code, 0 when it is not retryable.
func MaxAttempts(code Code) int {
	return Backoff(code).MaxAttempts
}
