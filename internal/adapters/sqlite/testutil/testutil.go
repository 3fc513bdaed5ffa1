package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/cardshare/digital-card-api/internal/adapters/sqlite"
)

// OpenTempDB opens a fresh database file under t.TempDir and closes it on cleanup.
func OpenTempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "cards.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
