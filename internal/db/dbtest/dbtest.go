// Package dbtest provides migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/templui/stash/internal/db"
)

const pragmas = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"

// New returns a migrated SQLite database in a temp dir. It is closed when the
// test finishes. The pool holds a single connection, so transactions run one
// at a time.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	sqlDB := open(t, pragmas)

	// Serializes writers so concurrent tests never see SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	return sqlDB
}

// NewPooled is New with the server's pool size and WAL journal. Concurrent
// writers contend on the database lock exactly as they do in production.
func NewPooled(t testing.TB) *sqlx.DB {
	t.Helper()
	return open(t, pragmas+"&_pragma=journal_mode(WAL)")
}

func open(t testing.TB, params string) *sqlx.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stash.db")

	sqlDB, err := db.Open(context.Background(), db.DriverSQLite, path+params)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	err = db.Migrate(context.Background(), sqlDB.DB, db.DriverSQLite)
	require.NoError(t, err)

	return sqlDB
}
