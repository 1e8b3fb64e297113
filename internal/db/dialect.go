package db

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Dialect identifiers supported by the database layer.
const (
	// DialectPostgres is the PostgreSQL dialect name.
	DialectPostgres = "postgres"
	// DialectSQLite is the SQLite dialect name.
	DialectSQLite = "sqlite"
)

// DialectName returns the active database dialect name.
func DialectName(conn *gorm.DB) string {
	if conn == nil || conn.Dialector == nil {
		return ""
	}
	return conn.Dialector.Name()
}

// IsSQLite reports whether the connection uses SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return DialectName(conn) == DialectSQLite
}

// StrictTxOptions returns the transaction options for paths that must see a
// serializable view of the data, such as admin-count checks and user ID
// re-sequencing. SQLite transactions are already serializable under its
// single-writer model, so only Postgres needs the explicit isolation level.
func StrictTxOptions(conn *gorm.DB) []*sql.TxOptions {
	if IsSQLite(conn) {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}
}

// CaseInsensitiveLikeExpr returns a SQL expression for case-insensitive LIKE.
func CaseInsensitiveLikeExpr(conn *gorm.DB, column string) string {
	if IsSQLite(conn) {
		return fmt.Sprintf("LOWER(%s) LIKE ?", column)
	}
	return fmt.Sprintf("%s ILIKE ?", column)
}

// NormalizeLikePattern normalizes a LIKE pattern for the current dialect.
func NormalizeLikePattern(conn *gorm.DB, pattern string) string {
	if IsSQLite(conn) {
		return strings.ToLower(pattern)
	}
	return pattern
}

// ResetUserIDSequence aligns the users auto-increment sequence with the
// current maximum ID, so inserts after a re-sequencing delete stay dense.
// Must run inside the same transaction as the re-sequencing updates.
func ResetUserIDSequence(conn *gorm.DB) error {
	if IsSQLite(conn) {
		err := conn.Exec(
			`UPDATE sqlite_sequence SET seq = (SELECT COALESCE(MAX(id), 0) FROM users) WHERE name = 'users'`,
		).Error
		if err != nil {
			return fmt.Errorf("db: reset sqlite sequence: %w", err)
		}
		return nil
	}
	err := conn.Exec(
		`SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE((SELECT MAX(id) FROM users), 0) + 1, false)`,
	).Error
	if err != nil {
		return fmt.Errorf("db: reset users sequence: %w", err)
	}
	return nil
}
