package testsupport

import (
	"database/sql"
	"path/filepath"
	"testing"

	"dropwatch/internal/infrastructure/database"
)

// MustOpenSQLite opens a migrated SQLite database under t.TempDir.
func MustOpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "dropwatch.db"))
	if err != nil {
		t.Fatalf("database.NewSQLiteDB: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	if err := database.RunSQLiteMigrations(db); err != nil {
		t.Fatalf("database.RunSQLiteMigrations: %v", err)
	}
	return db
}
