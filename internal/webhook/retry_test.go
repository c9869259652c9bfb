package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextDelayDoublesPerAttempt(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: time.Minute}

	assert.Equal(t, time.Second, cfg.NextDelay(1))
	assert.Equal(t, 2*time.Second, cfg.NextDelay(2))
	assert.Equal(t, 4*time.Second, cfg.NextDelay(3))
	assert.Equal(t, 8*time.Second, cfg.NextDelay(4))
}

func TestNextDelayCapsAtMax(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, 5*time.Second, cfg.NextDelay(4))
	assert.Equal(t, 5*time.Second, cfg.NextDelay(9))
}

func TestNormalizedFillsDefaults(t *testing.T) {
	cfg := RetryConfig{}.normalized()

	assert.Equal(t, DefaultRetryConfig(), cfg)

	custom := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Second}.normalized()
	assert.Equal(t, 3, custom.MaxAttempts)
	assert.Equal(t, time.Millisecond, custom.BaseDelay)
}
