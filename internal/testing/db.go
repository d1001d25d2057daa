// Package testing provides shared test helpers: an isolated SQLite database
// factory, a market-data mock, and synthetic price series fixtures.
package testing

import (
	"fmt"
	"os"
	"testing"

	"cryptodeck/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temp-file SQLite database for a test and returns it
// with an idempotent cleanup function. Temp files (not shared memory) keep
// parallel tests isolated.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: database.ProfileStandard,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		_ = db.Close()
		_ = os.Remove(tmpPath)
	}
	return db, cleanup
}
