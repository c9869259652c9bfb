package webhook

import (
	"math"
	"time"
)

// RetryConfig bounds how often a failed delivery is re-attempted.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    time.Minute,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 1 * time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = time.Minute
	}
	return c
}

// NextDelay returns how long to wait after the given failed attempt:
// the base delay doubled per attempt, capped at MaxDelay.
func (c RetryConfig) NextDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return c.BaseDelay
	}

	delay := float64(c.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.MaxDelay) {
		return c.MaxDelay
	}

	return time.Duration(delay)
}
