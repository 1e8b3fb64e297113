package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		result, errAllow := limiter.Allow(context.Background(), "login:10.0.0.1", 3, now)
		if errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d unexpectedly blocked", i+1)
		}
		if result.Remaining != 3-(i+1) {
			t.Fatalf("attempt %d remaining = %d", i+1, result.Remaining)
		}
	}

	result, errAllow := limiter.Allow(context.Background(), "login:10.0.0.1", 3, now)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("fourth attempt in the window should be blocked")
	}

	// A new window resets the counter.
	result, errAllow = limiter.Allow(context.Background(), "login:10.0.0.1", 3, now.Add(time.Second))
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatalf("attempt in the next window should be allowed")
	}
}

func TestMemoryLimiterIsolatesKeys(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	if result, _ := limiter.Allow(context.Background(), "login:10.0.0.1", 1, now); !result.Allowed {
		t.Fatalf("first key should be allowed")
	}
	if result, _ := limiter.Allow(context.Background(), "login:10.0.0.1", 1, now); result.Allowed {
		t.Fatalf("first key should now be blocked")
	}
	if result, _ := limiter.Allow(context.Background(), "login:10.0.0.2", 1, now); !result.Allowed {
		t.Fatalf("second key should be unaffected")
	}
}

func TestMemoryLimiterUnlimited(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 10; i++ {
		if result, _ := limiter.Allow(context.Background(), "login:10.0.0.1", 0, now); !result.Allowed {
			t.Fatalf("zero limit means unlimited")
		}
	}
	if result, _ := limiter.Allow(context.Background(), "", 1, now); !result.Allowed {
		t.Fatalf("empty key means unlimited")
	}
}

func TestManagerUsesMemoryBackend(t *testing.T) {
	provider := func() Config { return Config{Limit: 2} }
	now := time.Unix(1_700_000_000, 0)
	manager := NewManager(provider, func() time.Time { return now }, nil)

	key := LoginKey("10.0.0.9")
	for i := 0; i < 2; i++ {
		result, errAllow := manager.Allow(context.Background(), key)
		if errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
		if !result.Allowed {
			t.Fatalf("attempt %d unexpectedly blocked", i+1)
		}
	}
	result, errAllow := manager.Allow(context.Background(), key)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("third attempt should be blocked")
	}
}

func TestManagerDisabledLimit(t *testing.T) {
	provider := func() Config { return Config{Limit: 0} }
	manager := NewManager(provider, nil, nil)

	for i := 0; i < 20; i++ {
		result, errAllow := manager.Allow(context.Background(), LoginKey("10.0.0.9"))
		if errAllow != nil {
			t.Fatalf("allow: %v", errAllow)
		}
		if !result.Allowed {
			t.Fatalf("disabled limit should never block")
		}
	}
}

func TestManagerFallsBackWhenRedisUnavailable(t *testing.T) {
	provider := func() Config {
		return Config{Limit: 1, RedisEnabled: true, RedisAddr: "127.0.0.1:1"}
	}
	now := time.Unix(1_700_000_000, 0)
	manager := NewManager(provider, func() time.Time { return now }, nil)

	key := LoginKey("10.0.0.9")
	result, errAllow := manager.Allow(context.Background(), key)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if !result.Allowed {
		t.Fatalf("memory fallback should allow the first attempt")
	}
	result, errAllow = manager.Allow(context.Background(), key)
	if errAllow != nil {
		t.Fatalf("allow: %v", errAllow)
	}
	if result.Allowed {
		t.Fatalf("memory fallback should block the second attempt")
	}
}

func TestLoginKey(t *testing.T) {
	if got := LoginKey("10.0.0.1"); got != "login:10.0.0.1" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := LoginKey(""); got != "" {
		t.Fatalf("empty address should yield empty key, got %q", got)
	}
}
