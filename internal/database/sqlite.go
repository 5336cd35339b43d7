package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // embedded SQLite driver

	"wikiseed/internal/logger"
)

// OpenSQLite opens (creating if needed) the embedded fallback store.
// WAL mode and a busy timeout are set through the DSN so they apply to
// every connection in the pool.
func OpenSQLite(path string, log logger.Interface) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The embedded driver serializes writes; a single connection avoids
	// SQLITE_BUSY churn under the concurrent reconcile workers.
	db.SetMaxOpenConns(1)

	if pingErr := db.Ping(); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return NewSQLStore(db, DialectSQLite, log), nil
}
