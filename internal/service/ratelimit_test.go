package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_EnforcesLimit(t *testing.T) {
	limiter := NewRateLimiter(20, time.Minute)

	base := time.Now()
	limiter.now = func() time.Time { return base }

	for i := 0; i < 20; i++ {
		assert.True(t, limiter.Allow("caller"), "request %d should be admitted", i+1)
	}
	assert.False(t, limiter.Allow("caller"), "21st request inside the window must be rejected")
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	limiter := NewRateLimiter(20, time.Minute)

	base := time.Now()
	limiter.now = func() time.Time { return base }
	for i := 0; i < 20; i++ {
		limiter.Allow("caller")
	}
	assert.False(t, limiter.Allow("caller"))

	// 61 seconds after the first request, all 20 timestamps have aged out.
	limiter.now = func() time.Time { return base.Add(61 * time.Second) }
	assert.True(t, limiter.Allow("caller"))
}

func TestRateLimiter_CallersAreIndependent(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)

	assert.True(t, limiter.Allow("alice"))
	assert.True(t, limiter.Allow("alice"))
	assert.False(t, limiter.Allow("alice"))

	assert.True(t, limiter.Allow("bob"))
}

func TestRateLimiter_Remaining(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	assert.Equal(t, 3, limiter.Remaining("caller"))
	limiter.Allow("caller")
	limiter.Allow("caller")
	assert.Equal(t, 1, limiter.Remaining("caller"))
	limiter.Allow("caller")
	assert.Equal(t, 0, limiter.Remaining("caller"))
}

func TestRateLimiter_NoDoubleAdmissionUnderConcurrency(t *testing.T) {
	const limit = 10
	limiter := NewRateLimiter(limit, time.Minute)

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("caller") {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), admitted)
}
