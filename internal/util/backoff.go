package util

import (
	"math/rand"
	"time"
)

// Backoff returns the wait duration before retry number attempt (0-based):
// baseDelay doubled per attempt, capped at maxDelay. It is a pure function
// of its inputs so retry schedules can be tested without real sleeps.
func Backoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := baseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	if d > maxDelay {
		return maxDelay
	}
	return d
}

// Jitter adds a random duration in [0, frac*d) to d. frac values outside
// (0, 1] disable the jitter.
func Jitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 || frac > 1 {
		return d
	}
	span := float64(d) * frac
	return d + time.Duration(rand.Float64()*span)
}
