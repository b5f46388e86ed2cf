// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"learnhub/database"

	"gorm.io/gorm"
)

// New returns a migrated SQLite database stored under t.TempDir. A single
// connection serializes writers the way row locks would on Postgres.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", filepath.Join(t.TempDir(), "learnhub.db"))
	db, err := database.Open("sqlite", dsn, 1)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
