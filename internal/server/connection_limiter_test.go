package server

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionLimiter_AcquireRelease(t *testing.T) {
	limiter := NewConnectionLimiter(3)

	// Distinct IPs so the per-IP rate limit stays out of the way.
	ok, _ := limiter.Acquire("10.0.0.1")
	assert.True(t, ok)
	ok, _ = limiter.Acquire("10.0.0.2")
	assert.True(t, ok)
	ok, _ = limiter.Acquire("10.0.0.3")
	assert.True(t, ok)
	assert.Equal(t, int64(3), limiter.Current())

	ok, reason := limiter.Acquire("10.0.0.4")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)

	limiter.Release()
	assert.Equal(t, int64(2), limiter.Current())

	ok, _ = limiter.Acquire("10.0.0.4")
	assert.True(t, ok)
}

func TestConnectionLimiter_PerIPRate(t *testing.T) {
	limiter := NewConnectionLimiter(1000)

	// Burn through the burst budget from a single IP.
	var rejected bool
	for i := 0; i < perIPBurst*2; i++ {
		ok, reason := limiter.Acquire("10.0.0.9")
		if !ok {
			assert.Equal(t, LimitReasonRate, reason)
			rejected = true
			break
		}
	}
	assert.True(t, rejected, "expected rate limit to trip")

	// Other IPs are unaffected.
	ok, _ := limiter.Acquire("10.0.0.10")
	assert.True(t, ok)
}

func TestConnectionLimiter_Concurrent(t *testing.T) {
	limiter := NewConnectionLimiter(100)
	var successCount, failCount int64

	start := make(chan struct{})
	var wg sync.WaitGroup

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, _ := limiter.Acquire(fmt.Sprintf("10.0.%d.%d", i/250, i%250))
			if ok {
				atomic.AddInt64(&successCount, 1)
			} else {
				atomic.AddInt64(&failCount, 1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(100), atomic.LoadInt64(&successCount))
	assert.Equal(t, int64(100), atomic.LoadInt64(&failCount))
	assert.Equal(t, int64(100), limiter.Current())

	for i := 0; i < 100; i++ {
		limiter.Release()
	}
	assert.Equal(t, int64(0), limiter.Current())
}

func TestConnectionLimiter_ZeroMax(t *testing.T) {
	limiter := NewConnectionLimiter(0)
	ok, reason := limiter.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)
}
