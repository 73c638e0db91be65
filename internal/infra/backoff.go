package infra

import (
	"math"
	"time"
)

const (
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 10 * time.Second
)

// CalculateBackoff returns the exponential delay before retry number retryCount (0-based).
func CalculateBackoff(retryCount int) time.Duration {
	// Cap retry count to prevent overflow (2^7 * 100ms > max 10s)
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 7 {
		return maxRetryDelay
	}
	delay := baseRetryDelay * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
