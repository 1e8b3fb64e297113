// Package ratelimit throttles login attempts per client IP using a
// fixed-window counter, in memory by default and in Redis when the settings
// enable it so limits hold across replicas.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, now time.Time) (Result, error)
}

// LoginKey builds the limiter key for a login attempt from the given address.
// Empty addresses yield an empty key, which limiters treat as unlimited.
func LoginKey(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	return "login:" + remoteAddr
}
