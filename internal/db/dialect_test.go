package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestStrictTxOptionsByDialect(t *testing.T) {
	conn, errOpen := Open(filepath.Join(t.TempDir(), "dialect.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if opts := StrictTxOptions(conn); opts != nil {
		t.Fatalf("sqlite needs no explicit isolation, got %+v", opts)
	}

	pg := &gorm.DB{Config: &gorm.Config{Dialector: postgres.New(postgres.Config{})}}
	opts := StrictTxOptions(pg)
	if len(opts) != 1 || opts[0].Isolation != sql.LevelSerializable {
		t.Fatalf("expected serializable isolation for postgres, got %+v", opts)
	}
}

func TestCaseInsensitiveLikeByDialect(t *testing.T) {
	conn, errOpen := Open(filepath.Join(t.TempDir(), "like.db"))
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if expr := CaseInsensitiveLikeExpr(conn, "name"); expr != "LOWER(name) LIKE ?" {
		t.Fatalf("unexpected sqlite expression %q", expr)
	}
	if pattern := NormalizeLikePattern(conn, "%Acme%"); pattern != "%acme%" {
		t.Fatalf("sqlite patterns must be lowercased, got %q", pattern)
	}

	pg := &gorm.DB{Config: &gorm.Config{Dialector: postgres.New(postgres.Config{})}}
	if expr := CaseInsensitiveLikeExpr(pg, "name"); expr != "name ILIKE ?" {
		t.Fatalf("unexpected postgres expression %q", expr)
	}
	if pattern := NormalizeLikePattern(pg, "%Acme%"); pattern != "%Acme%" {
		t.Fatalf("postgres patterns must be untouched, got %q", pattern)
	}
}
