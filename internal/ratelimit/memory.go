package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Stale counters are swept once the map grows past this size.
const memorySweepThreshold = 1024

type memoryWindow struct {
	start int64
	count int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter keyed by
// caller-supplied strings, typically client IPs.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*memoryWindow),
	}
}

// Allow checks whether another attempt fits in the current one-second window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}
	sec := now.Unix()
	reset := time.Unix(sec+1, 0).UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.windows[key]
	if window == nil {
		if len(l.windows) >= memorySweepThreshold {
			l.sweep(sec)
		}
		window = &memoryWindow{start: sec}
		l.windows[key] = window
	}
	if window.start != sec {
		window.start = sec
		window.count = 0
	}
	if window.count >= limit {
		return Result{Allowed: false, Remaining: 0, Reset: reset}, nil
	}
	window.count++
	return Result{Allowed: true, Remaining: limit - window.count, Reset: reset}, nil
}

// sweep drops counters whose window has passed. Caller holds the lock.
func (l *MemoryLimiter) sweep(sec int64) {
	for key, window := range l.windows {
		if window.start < sec {
			delete(l.windows, key)
		}
	}
}
