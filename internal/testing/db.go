// Package testing provides testing utilities and helpers for the project.
package testing

import (
	"os"
	"testing"

	"condorledger/internal/database"
)

// NewTestDB creates a temp-file SQLite database for testing with the given
// schema applied. Returns the database instance and a cleanup function that
// closes the connection and removes the file. Temporary files rather than
// :memory: so the connection pool sees one consistent database.
func NewTestDB(t *testing.T, name, schema string) (*database.DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test_"+name+"_*.db")
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

	if schema != "" {
		if err := db.ApplySchema(schema); err != nil {
			_ = db.Close()
			_ = os.Remove(tmpPath)
			t.Fatalf("Failed to apply schema to test database %s: %v", name, err)
		}
	}

	cleanup := func() {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		_ = os.Remove(tmpPath + "-wal")
		_ = os.Remove(tmpPath + "-shm")
	}

	return db, cleanup
}
