package core

import "time"

// Backoff returns the redelivery delay preceding the given attempt,
// growing exponentially from base and capped at max. Attempts are
// 1-based; out-of-range input gets the base delay.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}
