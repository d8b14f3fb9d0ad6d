// Package server implements a token bucket rate limiter for per-connection
// throttling that protects the room from abusive senders.
package server

import (
	"sync"
	"time"
)

// rateLimiter is a token bucket: burst frames are admitted immediately,
// then refill proceeds at burst/interval frames per second.
type rateLimiter struct {
	mu         sync.Mutex
	level      float64
	size       float64
	refillRate float64
	last       time.Time
}

func newRateLimiter(burst int, interval time.Duration) *rateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	size := float64(burst)
	refillRate := size / interval.Seconds()
	if refillRate <= 0 {
		refillRate = size
	}

	return &rateLimiter{
		level:      size,
		size:       size,
		refillRate: refillRate,
		last:       time.Now(),
	}
}

// allow reports whether one more frame fits the budget, consuming a token
// when it does.
func (rl *rateLimiter) allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(rl.last).Seconds(); elapsed > 0 {
		rl.level += elapsed * rl.refillRate
		if rl.level > rl.size {
			rl.level = rl.size
		}
	}
	rl.last = now

	if rl.level < 1 {
		return false
	}
	rl.level--
	return true
}
