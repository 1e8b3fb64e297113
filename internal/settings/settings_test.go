package settings_test

import (
	"path/filepath"
	"testing"

	"github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/settings"
)

func newTestStore(t *testing.T) *settings.Store {
	t.Helper()
	conn, errOpen := db.Open(filepath.Join(t.TempDir(), "settings.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return settings.NewStore(conn)
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	if errSet := store.SetValue("GREETING", "hello"); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if got := store.String("GREETING", "fallback"); got != "hello" {
		t.Fatalf("expected hello, got %q", got)
	}

	if errSet := store.SetValue("GREETING", "updated"); errSet != nil {
		t.Fatalf("overwrite: %v", errSet)
	}
	if got := store.String("GREETING", "fallback"); got != "updated" {
		t.Fatalf("expected updated, got %q", got)
	}
}

func TestStoreFallbacks(t *testing.T) {
	store := newTestStore(t)

	if got := store.String("MISSING", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := store.Int("MISSING", 7); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if got := store.Bool("MISSING", true); !got {
		t.Fatalf("expected true fallback")
	}
}

func TestStoreCoercion(t *testing.T) {
	store := newTestStore(t)

	// Numbers and booleans written as strings still parse.
	if errSet := store.SetValue("LIMIT", "12"); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if got := store.Int("LIMIT", 0); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if errSet := store.SetValue("ENABLED", "yes"); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if !store.Bool("ENABLED", false) {
		t.Fatalf("expected yes to parse as true")
	}
	if errSet := store.SetValue("NEGATIVE", -3); errSet != nil {
		t.Fatalf("set: %v", errSet)
	}
	if got := store.Int("NEGATIVE", 4); got != 4 {
		t.Fatalf("negative values fall back, got %d", got)
	}
}

func TestMigrateSeedsDefaults(t *testing.T) {
	store := newTestStore(t)

	if got := store.String(settings.SiteNameKey, ""); got != settings.DefaultSiteName {
		t.Fatalf("expected seeded site name %q, got %q", settings.DefaultSiteName, got)
	}
	if got := store.Int(settings.LoginRateLimitKey, 0); got != settings.DefaultLoginRateLimit {
		t.Fatalf("expected seeded login limit %d, got %d", settings.DefaultLoginRateLimit, got)
	}
}
