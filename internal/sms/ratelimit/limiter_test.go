// internal/sms/ratelimit/limiter_test.go
package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestLimiter_AllowsUpToMax(t *testing.T) {
	l := NewLimiter(60*time.Second, 3)
	now := time.Now()

	for i := 0; i < 3; i++ {
		result := l.CheckAndIncrement("+15551234567", now)
		assert.True(t, result.Allowed, "message %d should be allowed", i+1)
	}

	result := l.CheckAndIncrement("+15551234567", now)
	assert.False(t, result.Allowed, "message past the ceiling should be denied")
	assert.Equal(t, 60*time.Second, result.RetryAfter)
}

func TestLimiter_DenialDoesNotIncrement(t *testing.T) {
	l := NewLimiter(60*time.Second, 2)
	now := time.Now()

	l.CheckAndIncrement("+15551234567", now)
	l.CheckAndIncrement("+15551234567", now)

	// Repeated denials leave the counter at the ceiling.
	for i := 0; i < 5; i++ {
		result := l.CheckAndIncrement("+15551234567", now)
		assert.False(t, result.Allowed)
	}

	entry := l.Status("+15551234567")
	assert.NotNil(t, entry)
	assert.Equal(t, 2, entry.Count)
}

func TestLimiter_WindowRollover(t *testing.T) {
	l := NewLimiter(60*time.Second, 1)
	start := time.Now()

	assert.True(t, l.CheckAndIncrement("+15551234567", start).Allowed)
	assert.False(t, l.CheckAndIncrement("+15551234567", start.Add(30*time.Second)).Allowed)

	// A message at exactly window expiry opens a fresh window.
	result := l.CheckAndIncrement("+15551234567", start.Add(60*time.Second))
	assert.True(t, result.Allowed)

	entry := l.Status("+15551234567")
	assert.Equal(t, 1, entry.Count)
	assert.Equal(t, start.Add(60*time.Second), entry.WindowStart)
}

func TestLimiter_RetryAfterShrinksWithinWindow(t *testing.T) {
	l := NewLimiter(60*time.Second, 1)
	start := time.Now()

	l.CheckAndIncrement("+15551234567", start)

	result := l.CheckAndIncrement("+15551234567", start.Add(45*time.Second))
	assert.False(t, result.Allowed)
	assert.Equal(t, 15*time.Second, result.RetryAfter)
}

func TestLimiter_SendersIndependent(t *testing.T) {
	l := NewLimiter(60*time.Second, 1)
	now := time.Now()

	assert.True(t, l.CheckAndIncrement("+15551111111", now).Allowed)
	assert.False(t, l.CheckAndIncrement("+15551111111", now).Allowed)

	// A different sender has its own window.
	assert.True(t, l.CheckAndIncrement("+15552222222", now).Allowed)
}

// ==========================
// Edge Case Tests
// ==========================

func TestLimiter_Status_UnknownSender(t *testing.T) {
	l := NewLimiter(60*time.Second, 10)
	assert.Nil(t, l.Status("+15550000000"))
}

func TestLimiter_Cleanup_RemovesExpiredWindows(t *testing.T) {
	l := NewLimiter(60*time.Second, 10)
	start := time.Now()

	l.CheckAndIncrement("+15551111111", start)
	l.CheckAndIncrement("+15552222222", start.Add(30*time.Second))

	l.Cleanup(start.Add(60 * time.Second))

	assert.Nil(t, l.Status("+15551111111"), "expired window should be removed")
	assert.NotNil(t, l.Status("+15552222222"), "live window should survive cleanup")
}

func TestLimiter_ConcurrentSameSender(t *testing.T) {
	l := NewLimiter(60*time.Second, 10)
	now := time.Now()

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.CheckAndIncrement("+15551234567", now).Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 10, count, "exactly max messages should pass under contention")
}
