package notify

import (
	"math/rand"
	"time"
)

// Retry delays per attempt. Deliveries are fire and forget so the
// schedule stays short; an unreachable receiver costs a few seconds of
// one background goroutine, not a queue.
var retryDelays = []time.Duration{
	500 * time.Millisecond,
	2 * time.Second,
	5 * time.Second,
}

const (
	// DefaultMaxAttempts is the maximum delivery attempts per event.
	DefaultMaxAttempts = 3

	// JitterFactor is the ±percentage of jitter applied to delays.
	JitterFactor = 0.2
)

// NextRetryDelay calculates the next retry delay with jitter.
// attemptCount is 0-indexed (after the first failed attempt, attemptCount = 0).
func NextRetryDelay(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	if attemptCount >= len(retryDelays) {
		attemptCount = len(retryDelays) - 1
	}

	base := retryDelays[attemptCount]

	jitterRange := float64(base) * JitterFactor
	jitter := (rand.Float64()*2 - 1) * jitterRange

	return time.Duration(float64(base) + jitter)
}

// IsExhausted returns true if max attempts have been reached.
func IsExhausted(attemptCount, maxAttempts int) bool {
	return attemptCount >= maxAttempts
}
