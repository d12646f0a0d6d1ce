package persistence

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the SQLite-backed embedding cache, audit repository, and
// CacheAdmin, used as the local/offline cache backend. It has no document
// or run repositories.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if necessary) the SQLite database at path and
// applies the embedded migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}

	// SQLite serializes writers; a single open connection avoids
	// "database is locked" errors under this package's bulk-insert pattern.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := MigrateSQLite(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close releases the underlying connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
