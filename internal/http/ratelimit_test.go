package httpx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_PerKeyBuckets(t *testing.T) {
	l := NewKeyedLimiter(RateLimitConfig{RequestsPerWindow: 2, Window: time.Hour, Burst: 2})

	ok, _ := l.Allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.Allow("10.0.0.1")
	assert.True(t, ok)

	ok, delay := l.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Greater(t, delay, time.Duration(0))

	ok, _ = l.Allow("10.0.0.2")
	assert.True(t, ok, "other clients keep their own bucket")
}

func TestKeyedLimiter_Defaults(t *testing.T) {
	l := NewKeyedLimiter(RateLimitConfig{})
	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("k")
		assert.True(t, ok)
	}
	ok, _ := l.Allow("k")
	assert.False(t, ok)
}

func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, retryAfterSeconds(0))
	assert.Equal(t, 1, retryAfterSeconds(200*time.Millisecond))
	assert.Equal(t, 12, retryAfterSeconds(11*time.Second+time.Millisecond))
}
